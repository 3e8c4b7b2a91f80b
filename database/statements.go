/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"bufio"
	"strings"
)

// StatementTerminator separates statements in a schema file.
const StatementTerminator = ";"

// SplitStatements splits content on terminator and returns the non-empty
// statements in file order. Whole-line "--" comments are dropped before
// splitting, so a terminator inside such a comment never ends a statement.
func SplitStatements(content, terminator string) []string {
	if terminator == "" {
		terminator = StatementTerminator
	}
	var statements []string
	for _, segment := range strings.Split(stripLineComments(content), terminator) {
		if stmt := strings.TrimSpace(segment); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func stripLineComments(content string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}
