package cli

import (
	"net"
	"reflect"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want request
	}{
		{
			name: "prompt only",
			raw:  "explain this code",
			want: request{prompt: "explain this code"},
		},
		{
			name: "file and prompt",
			raw:  "main.go@what does this do",
			want: request{prompt: "what does this do", files: []string{"main.go"}},
		},
		{
			name: "multiple files",
			raw:  "a.go,b.go@compare these",
			want: request{prompt: "compare these", files: []string{"a.go", "b.go"}},
		},
		{
			name: "empty file part",
			raw:  "@just a prompt",
			want: request{prompt: "just a prompt"},
		},
		{
			name: "trailing newline trimmed",
			raw:  "hello\n",
			want: request{prompt: "hello"},
		},
		{
			name: "file with range",
			raw:  "main.go:10-20@explain this range",
			want: request{prompt: "explain this range", files: []string{"main.go:10-20"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRequest(tt.raw)
			if got.prompt != tt.want.prompt {
				t.Errorf("prompt = %q, want %q", got.prompt, tt.want.prompt)
			}
			if !reflect.DeepEqual(got.files, tt.want.files) {
				t.Errorf("files = %v, want %v", got.files, tt.want.files)
			}
		})
	}
}

func TestReadRequest(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()

	go func() {
		clientConn.Write([]byte("a.go@hello\n"))
		clientConn.Close()
	}()

	req, err := readRequest(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.prompt != "hello" || len(req.files) != 1 || req.files[0] != "a.go" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestReadRequestWithoutNewline(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()

	go func() {
		clientConn.Write([]byte("no newline"))
		clientConn.Close()
	}()

	req, err := readRequest(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.prompt != "no newline" {
		t.Errorf("unexpected prompt: %q", req.prompt)
	}
}

func TestReadRequestEmpty(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()

	go clientConn.Close()

	if _, err := readRequest(server); err == nil {
		t.Error("expected error for empty request")
	}
}
