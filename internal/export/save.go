/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Saver persists an encoded file under name and returns where it ended up.
type Saver interface {
	Save(name string, data []byte) (string, error)
}

// FileSaver writes into Dir. Without Overwrite an existing file is kept and
// the next free "name (n).ext" is used, the way a browser download folder does.
type FileSaver struct {
	Dir       string
	Overwrite bool
}

// maxSuffix bounds the search for a free name.
const maxSuffix = 9999

func (s FileSaver) Save(name string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", errors.New("save: empty file name")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	// Transactional write: to temp file in same directory, then move into place
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", name, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	defer os.Remove(temp)

	if s.Overwrite {
		target := filepath.Join(dir, name)
		// On Windows, replace by removing destination first if needed
		if _, err := os.Stat(target); err == nil {
			_ = os.Remove(target)
		}
		if err := os.Rename(temp, target); err != nil {
			return "", fmt.Errorf("replace %s: %w", name, err)
		}
		return target, nil
	}

	for i := 0; i <= maxSuffix; i++ {
		target := filepath.Join(dir, numbered(name, i))
		// Link fails when target exists, which makes the name claim atomic.
		err := os.Link(temp, target)
		if err == nil {
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		// filesystems without hard links
		if _, serr := os.Stat(target); serr == nil {
			continue
		}
		if rerr := os.Rename(temp, target); rerr != nil {
			return "", fmt.Errorf("move into %s: %w", target, rerr)
		}
		return target, nil
	}
	return "", fmt.Errorf("save: no free name for %s", name)
}

// numbered returns "base (i).ext" for i > 0.
func numbered(name string, i int) string {
	if i == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), i, ext)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
