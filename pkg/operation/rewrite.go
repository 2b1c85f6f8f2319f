// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/pkg/charset"
	"github.com/walteh/retarget/pkg/log"
	"github.com/walteh/retarget/pkg/status"
	"github.com/walteh/retarget/pkg/text"
)

// 📦 NewRewriteOperation creates the operation behind apply
func NewRewriteOperation(opts Options) Operation {
	return &rewriteOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 🔎 NewCheckOperation creates a dry run that never writes
func NewCheckOperation(opts Options) Operation {
	return &rewriteOperation{
		BaseOperation: NewBaseOperation(opts),
		dryRun:        true,
		failOnChange:  opts.FailOnChange,
	}
}

// 📦 rewriteOperation implements apply and check
type rewriteOperation struct {
	BaseOperation
	dryRun       bool
	failOnChange bool
}

// 🏃 Execute runs the operation over every root
func (op *rewriteOperation) Execute(ctx context.Context) error {
	if op.Plan == nil {
		return errors.Errorf("rewrite requires a plan")
	}

	started := time.Now()
	if op.Plan.Target.IP != nil {
		op.Console.Header("target ip " + op.Plan.Target.String() + " (" + string(op.Plan.Target.Source) + ")")
		if op.Plan.Target.Err != nil {
			op.Console.Warningf("address discovery failed, using %s: %v", op.Plan.Target.String(), op.Plan.Target.Err)
		}
	}

	if err := op.forEachRoot(ctx, op.walkOptions(), op.processFile); err != nil {
		return err
	}

	command := "apply"
	if op.dryRun {
		command = "check"
	}
	summary, err := op.finish(ctx, command, status.Report{Started: started})
	if err != nil {
		return err
	}

	if op.dryRun && op.failOnChange && summary.WouldModify > 0 {
		return errors.Errorf("%d file(s): %w", summary.WouldModify, ErrChangesPending)
	}
	return nil
}

// 📄 processFile handles one candidate. Failures are reported and
// recorded, never returned, so the walk always continues.
func (op *rewriteOperation) processFile(ctx context.Context, c Candidate) {
	logger := zerolog.Ctx(ctx).With().Str("path", c.Path).Logger()

	content, err := op.StatusMgr.ReadFile(ctx, c.Path)
	if err != nil {
		op.fail(ctx, c, "", err)
		return
	}

	decoded, err := op.Plan.Chain.Decode(content)
	if err != nil {
		if errors.Is(err, charset.ErrNoEncodingMatched) {
			op.Console.LogFileOperation(ctx, log.FileOperation{
				Path:         c.Path,
				Status:       "could not read",
				IsUnreadable: true,
				Detail:       err.Error(),
			})
			op.StatusMgr.TrackFile(ctx, c.Path, status.FileInfo{
				Root:   c.Root,
				Status: status.StatusUnreadable,
				Size:   int64(len(content)),
				Error:  err,
			})
			return
		}
		op.fail(ctx, c, "", err)
		return
	}

	result, err := op.Replacer.ReplaceText(ctx, c.Rel, decoded.Text, op.Plan.Rules)
	if err != nil {
		op.fail(ctx, c, decoded.Encoding, errors.Errorf("replacing text: %w", err))
		return
	}

	for _, m := range result.Matches {
		if m.Rule.Kind == text.KindMarker {
			op.Console.Infof("%s: found %d address(es) with prefix %s, no replacement configured", c.Path, m.Count, m.Rule.FromText)
		}
	}

	info := status.FileInfo{
		Root:         c.Root,
		Encoding:     decoded.Encoding,
		Replacements: result.ReplacementCount,
		Markers:      result.MarkerCount,
		Size:         int64(len(content)),
	}

	if !result.WasModified {
		logger.Debug().Int("replacements", result.ReplacementCount).Msg("content unchanged")
		info.Status = status.StatusUnchanged
		op.StatusMgr.TrackFile(ctx, c.Path, info)
		return
	}

	if op.dryRun {
		info.Status = status.StatusWouldModify
		op.Console.LogFileOperation(ctx, log.FileOperation{
			Path:         c.Path,
			Encoding:     decoded.Encoding,
			Status:       "would update",
			IsPending:    true,
			Replacements: result.ReplacementCount,
		})
		op.StatusMgr.TrackFile(ctx, c.Path, info)
		return
	}

	if op.Config.Backup {
		if err := op.StatusMgr.BackupFile(ctx, c.Path); err != nil {
			op.fail(ctx, c, decoded.Encoding, err)
			return
		}
	}

	out := charset.EncodeCanonical(result.ModifiedContent)
	if err := op.StatusMgr.WriteFileAtomic(ctx, c.Path, out); err != nil {
		op.fail(ctx, c, decoded.Encoding, err)
		return
	}

	info.Status = status.StatusModified
	info.Checksum = status.Checksum(out)
	op.Console.LogFileOperation(ctx, log.FileOperation{
		Path:         c.Path,
		Encoding:     decoded.Encoding,
		Status:       "updated",
		IsModified:   true,
		Replacements: result.ReplacementCount,
	})
	op.StatusMgr.TrackFile(ctx, c.Path, info)
}

func (op *rewriteOperation) fail(ctx context.Context, c Candidate, encoding string, err error) {
	zerolog.Ctx(ctx).Debug().Str("path", c.Path).Err(err).Msg("file failed")
	op.Console.LogFileOperation(ctx, log.FileOperation{
		Path:     c.Path,
		Encoding: encoding,
		Status:   "error",
		IsFailed: true,
		Detail:   err.Error(),
	})
	op.StatusMgr.TrackFile(ctx, c.Path, status.FileInfo{
		Root:     c.Root,
		Status:   status.StatusFailed,
		Encoding: encoding,
		Error:    err,
	})
}
