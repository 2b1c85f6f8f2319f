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

package status

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 📊 Summary counts files per outcome
type Summary struct {
	Scanned      int `json:"scanned" yaml:"scanned"`
	Modified     int `json:"modified" yaml:"modified"`
	WouldModify  int `json:"would_modify" yaml:"would_modify"`
	Unchanged    int `json:"unchanged" yaml:"unchanged"`
	Unreadable   int `json:"unreadable" yaml:"unreadable"`
	Failed       int `json:"failed" yaml:"failed"`
	Restored     int `json:"restored" yaml:"restored"`
	Replacements int `json:"replacements" yaml:"replacements"`
	Markers      int `json:"markers" yaml:"markers"`
}

// Changed is the number of files rewritten or that would be
func (s Summary) Changed() int {
	return s.Modified + s.WouldModify
}

// Summary totals every tracked file
func (m *Manager) Summary(ctx context.Context) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Summary
	for _, path := range m.order {
		info := m.files[path]
		s.Scanned++
		s.Replacements += info.Replacements
		s.Markers += info.Markers
		switch info.Status {
		case StatusModified:
			s.Modified++
		case StatusWouldModify:
			s.WouldModify++
		case StatusUnchanged:
			s.Unchanged++
		case StatusUnreadable:
			s.Unreadable++
		case StatusFailed:
			s.Failed++
		case StatusRestored:
			s.Restored++
		}
	}
	return s
}

// 📝 Report is the optional machine-readable record of one run
type Report struct {
	Command  string     `json:"command" yaml:"command"`
	TargetIP string     `json:"target_ip,omitempty" yaml:"target_ip,omitempty"`
	Source   string     `json:"source,omitempty" yaml:"source,omitempty"`
	Started  time.Time  `json:"started" yaml:"started"`
	Finished time.Time  `json:"finished" yaml:"finished"`
	Summary  Summary    `json:"summary" yaml:"summary"`
	Files    []FileInfo `json:"files" yaml:"files"`
}

// BuildReport snapshots the tracked files into r
func (m *Manager) BuildReport(ctx context.Context, r Report) (*Report, error) {
	files, err := m.ListFiles(ctx)
	if err != nil {
		return nil, errors.Errorf("listing files: %w", err)
	}
	r.Files = files
	r.Summary = m.Summary(ctx)
	return &r, nil
}

// 💾 WriteReport writes the report as YAML for .yaml/.yml paths and JSON otherwise
func (m *Manager) WriteReport(ctx context.Context, path string, r Report) error {
	report, err := m.BuildReport(ctx, r)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.Errorf("encoding report: %w", err)
	}

	if err := m.WriteFile(ctx, path, data); err != nil {
		return errors.Errorf("writing report: %w", err)
	}
	return nil
}
