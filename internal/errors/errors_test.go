package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "CW102",
			wantMsg: "Invalid config file",
			wantCat: CategoryConfig,
		},
		{
			name:    "connection error",
			code:    "CW201",
			wantMsg: "Connection failed",
			wantCat: CategoryConnection,
		},
		{
			name:    "auth error",
			code:    "CW302",
			wantMsg: "Server requires online mode",
			wantCat: CategoryAuth,
		},
		{
			name:    "unknown error code",
			code:    "CW999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestCodeRanges(t *testing.T) {
	prefixes := map[Category]string{
		CategoryConfig:     "CW1",
		CategoryConnection: "CW2",
		CategoryAuth:       "CW3",
	}
	for _, code := range GetAllCodes() {
		tmpl, _ := GetTemplate(code)
		if want := prefixes[tmpl.Category]; !strings.HasPrefix(code, want) {
			t.Errorf("%s has category %q, want prefix %q", code, tmpl.Category, want)
		}
	}
}

func TestCraftError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CraftError
		want string
	}{
		{"code", New("CW203"), "CW203: Disconnected by server"},
		{"no code", &CraftError{Message: "test error"}, "test error"},
		{"wrapped", New("CW205").Wrap(fmt.Errorf("EOF")), "CW205: Connection lost: EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := New("CW201").Wrap(inner)

	if !stderrors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if err.Detail != "connection refused" {
		t.Errorf("Detail = %q, want the wrapped text", err.Detail)
	}

	kept := New("CW201").WithDetail("custom").Wrap(inner)
	if kept.Detail != "custom" {
		t.Errorf("Detail = %q, want %q", kept.Detail, "custom")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "CW201") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	ce := New("CW301")
	if FromError(fmt.Errorf("outer: %w", ce), "CW201") != ce {
		t.Error("FromError should return a CraftError in the chain as-is")
	}

	std := fmt.Errorf("boom")
	got := FromError(std, "CW204")
	if got.Code != "CW204" || got.Wrapped != std || got.Detail != "boom" {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	formatted := New("CW201").
		WithDetail("dial tcp 127.0.0.1:25565: connection refused").
		Format()

	for _, want := range []string{
		"ERROR CW201: Connection failed",
		"dial tcp 127.0.0.1:25565: connection refused",
		"Hint: Check that the server is running",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
	if strings.Contains(formatted, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	got := New("CW203").WithDetail("kicked").FormatCompact()
	want := "CW203: Disconnected by server (kicked)"
	if got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	var got map[string]string
	if err := json.Unmarshal([]byte(New("CW304").FormatJSON()), &got); err != nil {
		t.Fatal(err)
	}
	if got["code"] != "CW304" || got["category"] != "auth" || got["message"] != "Missing access token" {
		t.Errorf("FormatJSON() = %v", got)
	}
	if _, ok := got["suggestion"]; ok {
		t.Error("empty suggestion should be omitted")
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("run: %w", New("CW101")))
	if !strings.Contains(buf.String(), "ERROR CW101: Config file not found") {
		t.Errorf("coded error printed as %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("plain error printed as %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	if got = wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
