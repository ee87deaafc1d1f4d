/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
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

package banner

import (
	"bytes"
	"strings"
	"testing"

	"flymem/internal/config"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf)
	out := buf.String()
	for _, want := range []string{"FlyMem", Version, Copyright, License} {
		if !strings.Contains(out, want) {
			t.Errorf("Banner missing %q", want)
		}
	}
}

func TestPrintWithConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Collation = "unicode"
	cfg.Locale = "de"
	cfg.StatementCache = 0

	var buf bytes.Buffer
	PrintWithConfig(&buf, cfg)
	out := buf.String()
	for _, want := range []string{"Engine", "Collation:", "unicode (de)", "Statement cache:", "off", "defaults + environment"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}
