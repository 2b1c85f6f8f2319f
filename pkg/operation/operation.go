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
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retarget/pkg/config"
	"github.com/walteh/retarget/pkg/log"
	"github.com/walteh/retarget/pkg/status"
	"github.com/walteh/retarget/pkg/text"
)

var (
	// ErrMissingRoot marks a scan root that does not exist or is not a directory
	ErrMissingRoot = errors.New("scan root not found")

	// ErrNoRules is returned when there is nothing to replace
	ErrNoRules = errors.New("no replacement rules configured")

	// ErrChangesPending is returned by a check run with FailOnChange set
	ErrChangesPending = errors.New("files would change")
)

// 🎯 Operation is one command's work over the configured roots
type Operation interface {
	Execute(ctx context.Context) error
}

// 💾 StatusManager is the file and tracking surface operations need
type StatusManager interface {
	status.FileManager
	status.StatusReporter
}

// 🔧 Options contains everything an operation needs
type Options struct {
	// Config is the validated retarget configuration
	Config *config.Config
	// Plan is the prepared target, rules and decode chain. Restore does not need one.
	Plan *Plan
	// StatusMgr reads, writes and tracks files
	StatusMgr StatusManager
	// Console prints user facing notices
	Console *log.Logger
	// Replacer applies rules to decoded text
	Replacer text.TextReplacer
	// ReportPath optionally receives a JSON or YAML run report
	ReportPath string
	// ShowTable prints a summary table at the end
	ShowTable bool
	// FailOnChange makes a check run fail when any file would change
	FailOnChange bool
}

// 🧱 BaseOperation holds the shared dependencies of every operation
type BaseOperation struct {
	Config    *config.Config
	Plan      *Plan
	StatusMgr StatusManager
	Console   *log.Logger
	Replacer  text.TextReplacer

	reportPath string
	showTable  bool
}

// 🏭 NewBaseOperation fills in defaults for missing dependencies
func NewBaseOperation(opts Options) BaseOperation {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	mgr := opts.StatusMgr
	if mgr == nil {
		mgr = status.New(".", nil)
	}
	console := opts.Console
	if console == nil {
		console = log.New(io.Discard, zerolog.Disabled)
	}
	replacer := opts.Replacer
	if replacer == nil {
		replacer = text.NewSimpleTextReplacer()
	}
	return BaseOperation{
		Config:     cfg,
		Plan:       opts.Plan,
		StatusMgr:  mgr,
		Console:    console,
		Replacer:   replacer,
		reportPath: opts.ReportPath,
		showTable:  opts.ShowTable,
	}
}

func (op *BaseOperation) walkOptions() WalkOptions {
	return WalkOptions{
		Extensions:     op.Config.Extensions,
		ExcludeDirs:    op.Config.ExcludeDirs,
		IgnorePatterns: op.Config.IgnorePatterns,
	}
}

// 🌳 forEachRoot walks every root in configured order and hands each
// candidate to fn. Missing roots are reported and skipped.
func (op *BaseOperation) forEachRoot(ctx context.Context, wo WalkOptions, fn func(ctx context.Context, c Candidate)) error {
	for _, root := range op.Config.Roots {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("operation cancelled: %w", err)
		}

		rootOp := log.RootOperation{Root: root}
		wo.OnSkip = func(path string, err error) {
			op.Console.Warningf("skipping %s: %v", path, err)
		}

		candidates, err := Walk(ctx, root, wo)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return errors.Errorf("operation cancelled: %w", ctxErr)
			}
			rootOp.Missing = errors.Is(err, ErrMissingRoot)
			op.Console.StartRootOperation(ctx, rootOp)
			op.Console.Warningf("skipping root %s: %v", root, err)
			op.Console.EndRootOperation(ctx)
			continue
		}

		op.Console.StartRootOperation(ctx, rootOp)
		op.StatusMgr.StartOperation(ctx, len(candidates))
		for i, c := range candidates {
			if err := ctx.Err(); err != nil {
				op.StatusMgr.FinishOperation(ctx)
				op.Console.EndRootOperation(ctx)
				return errors.Errorf("operation cancelled: %w", err)
			}
			fn(ctx, c)
			op.StatusMgr.UpdateProgress(ctx, i+1)
		}
		op.StatusMgr.FinishOperation(ctx)
		op.Console.EndRootOperation(ctx)
	}
	return nil
}

// 🏁 finish prints the completion notice, the optional table and report
func (op *BaseOperation) finish(ctx context.Context, command string, r status.Report) (status.Summary, error) {
	summary := op.StatusMgr.Summary(ctx)
	r.Finished = time.Now()

	op.Console.LogNewline()
	op.Console.Successf("done: %d scanned, %d modified, %d would modify, %d unchanged, %d unreadable, %d failed, %d restored",
		summary.Scanned, summary.Modified, summary.WouldModify, summary.Unchanged, summary.Unreadable, summary.Failed, summary.Restored)

	if op.showTable {
		if err := op.Console.Table(summaryRows(summary)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("rendering summary table")
		}
	}

	if op.reportPath != "" {
		r.Command = command
		if op.Plan != nil && op.Plan.Target.IP != nil {
			r.TargetIP = op.Plan.Target.String()
			r.Source = string(op.Plan.Target.Source)
		}
		if err := op.StatusMgr.WriteReport(ctx, op.reportPath, r); err != nil {
			return summary, errors.Errorf("writing report: %w", err)
		}
		op.Console.Infof("report written to %s", op.reportPath)
	}

	return summary, nil
}

func summaryRows(s status.Summary) [][]string {
	rows := [][]string{{"status", "files"}}
	for _, row := range []struct {
		name  string
		count int
	}{
		{status.StatusModified.String(), s.Modified},
		{status.StatusWouldModify.String(), s.WouldModify},
		{status.StatusUnchanged.String(), s.Unchanged},
		{status.StatusUnreadable.String(), s.Unreadable},
		{status.StatusFailed.String(), s.Failed},
		{status.StatusRestored.String(), s.Restored},
	} {
		if row.count == 0 {
			continue
		}
		rows = append(rows, []string{row.name, strconv.Itoa(row.count)})
	}
	rows = append(rows, []string{"total", strconv.Itoa(s.Scanned)})
	return rows
}
