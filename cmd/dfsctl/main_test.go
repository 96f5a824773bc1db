package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorumfs/internal/it"
)

func TestDispatch_AgainstSingleNode(t *testing.T) {
	c, err := it.StartCluster(context.Background(), it.Options{N: 1, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer c.Stop()

	client, err := c.Client(0)
	require.NoError(t, err)
	ctx := context.Background()

	exec := func(args ...string) (int, string, string) {
		var stdout, stderr bytes.Buffer
		code := dispatch(ctx, client, args, &stdout, &stderr)
		return code, stdout.String(), stderr.String()
	}

	code, out, _ := exec("write", "doc.txt", "hello")
	require.Equal(t, 0, code)
	assert.Equal(t, "Wrote doc.txt at version 1\n", out)

	src := filepath.Join(t.TempDir(), "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("from file"), 0o644))
	code, out, _ = exec("write", "doc.txt", "-f", src)
	require.Equal(t, 0, code)
	assert.Equal(t, "Wrote doc.txt at version 2\n", out)

	code, out, errOut := exec("read", "doc.txt")
	require.Equal(t, 0, code)
	assert.Equal(t, "from file", out)
	assert.Contains(t, errOut, "version 2")

	code, _, errOut = exec("read", "missing.txt")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "File does not exist yet")

	code, out, _ = exec("ls")
	require.Equal(t, 0, code)
	assert.Equal(t, "doc.txt\t2\n", out)

	code, out, _ = exec("member")
	require.Equal(t, 0, code)
	assert.Equal(t, c.Node(0).Identity().Addr(), strings.TrimSpace(out))

	code, _, _ = exec("rm", "doc.txt")
	assert.Equal(t, 2, code)
}

func TestWriteArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"inline", []string{"a", "b"}, false},
		{"missing contents", []string{"a"}, true},
		{"missing file", []string{"a", "-f", "/nonexistent"}, true},
		{"too many", []string{"a", "b", "c", "d"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := writeArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("writeArgs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}
