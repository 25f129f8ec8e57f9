package wwan

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExternalToolErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *ExternalToolError
		want string
	}{
		{
			name: "args and stderr",
			err: &ExternalToolError{
				Tool:   "mmcli",
				Args:   []string{"-m", "7", "-J"},
				Stderr: "error: couldn't find modem",
				Err:    errors.New("exit status 1"),
			},
			want: "mmcli -m 7 -J: exit status 1: error: couldn't find modem",
		},
		{
			name: "bare",
			err:  &ExternalToolError{Tool: "netlink", Err: errors.New("no such device")},
			want: "netlink: no such device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.err.Error()); diff != "" {
				t.Fatalf("unexpected message (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpErrorUnwrap(t *testing.T) {
	err := opError("connect", "0", PermissionDenied("connect"))
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, but got: %v", err)
	}

	if diff := cmp.Diff(`connect "0": connect requires root privileges: permission denied`, err.Error()); diff != "" {
		t.Fatalf("unexpected message (-want +got):\n%s", diff)
	}

	if opError("connect", "0", nil) != nil {
		t.Fatal("expected nil error for nil input")
	}
}

func TestSelectorNotFound(t *testing.T) {
	err := SelectorNotFound("bearer", "9")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected is not exist error, but got: %v", err)
	}
}
