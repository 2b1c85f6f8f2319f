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
	"strings"
	"time"

	"github.com/walteh/retarget/pkg/log"
	"github.com/walteh/retarget/pkg/status"
)

// ♻️ NewRestoreOperation creates an operation that puts backups back
func NewRestoreOperation(opts Options) Operation {
	return &restoreOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// ♻️ restoreOperation implements the restore operation
type restoreOperation struct {
	BaseOperation
}

// 🏃 Execute runs the restore operation
func (op *restoreOperation) Execute(ctx context.Context) error {
	started := time.Now()

	wo := op.walkOptions()
	wo.Match = func(name string) (string, bool) {
		original, ok := strings.CutSuffix(name, status.BackupSuffix)
		if !ok {
			return "", false
		}
		return MatchExtension(original, op.Config.Extensions)
	}

	if err := op.forEachRoot(ctx, wo, op.restoreFile); err != nil {
		return err
	}

	_, err := op.finish(ctx, "restore", status.Report{Started: started})
	return err
}

// ♻️ restoreFile copies one backup over its original and removes it
func (op *restoreOperation) restoreFile(ctx context.Context, c Candidate) {
	original := strings.TrimSuffix(c.Path, status.BackupSuffix)

	if err := op.StatusMgr.RestoreFile(ctx, original); err != nil {
		op.Console.LogFileOperation(ctx, log.FileOperation{
			Path:     original,
			Status:   "error",
			IsFailed: true,
			Detail:   err.Error(),
		})
		op.StatusMgr.TrackFile(ctx, original, status.FileInfo{
			Root:   c.Root,
			Status: status.StatusFailed,
			Error:  err,
		})
		return
	}

	op.Console.LogFileOperation(ctx, log.FileOperation{
		Path:       original,
		Status:     "restored",
		IsRestored: true,
	})
	op.StatusMgr.TrackFile(ctx, original, status.FileInfo{
		Root:   c.Root,
		Status: status.StatusRestored,
	})
}
