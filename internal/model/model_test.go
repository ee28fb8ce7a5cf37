package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRevision_Defaults(t *testing.T) {
	before := time.Now().UTC()
	r := NewRevision(1, "r1")
	after := time.Now().UTC()

	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, "r1", r.Name)
	assert.Equal(t, "No log message", r.Log)
	assert.Equal(t, "Unknown author", r.Author)
	assert.Equal(t, time.UTC, r.Date.Location())
	assert.False(t, r.Date.Before(before), "date %v before construction", r.Date)
	assert.False(t, r.Date.After(after), "date %v after construction", r.Date)
	assert.Empty(t, r.Dirs)
	assert.Empty(t, r.Files)
}

func TestNewRevision_DefaultDateIsPerCall(t *testing.T) {
	first := NewRevision(1, "r1")
	time.Sleep(2 * time.Millisecond)
	second := NewRevision(2, "r2")

	assert.True(t, second.Date.After(first.Date), "second date %v not after first %v", second.Date, first.Date)
}

func TestNewRevision_Options(t *testing.T) {
	date := time.Date(2011, 3, 4, 5, 6, 7, 0, time.FixedZone("CET", 3600))
	r := NewRevision(7, "r7", WithLog("initial import"), WithAuthor("jdoe"), WithDate(date))

	assert.Equal(t, "initial import", r.Log)
	assert.Equal(t, "jdoe", r.Author)
	assert.True(t, r.Date.Equal(date))
	assert.Equal(t, time.UTC, r.Date.Location())
}

func TestRevision_String(t *testing.T) {
	tests := []struct {
		name string
		rev  *Revision
		want string
	}{
		{
			name: "log message",
			rev:  NewRevision(1, "r1", WithLog("test log message")),
			want: "Revision(1: 'test log message')",
		},
		{
			name: "default log",
			rev:  NewRevision(42, "r42"),
			want: "Revision(42: 'No log message')",
		},
		{
			name: "single quote switches to double quotes",
			rev:  NewRevision(3, "r3", WithLog("don't")),
			want: `Revision(3: "don't")`,
		},
		{
			name: "both quotes escape the single quote",
			rev:  NewRevision(4, "r4", WithLog(`it's "fixed"`)),
			want: `Revision(4: 'it\'s "fixed"')`,
		},
		{
			name: "control characters are escaped",
			rev:  NewRevision(5, "r5", WithLog("line one\nline\ttwo\x01")),
			want: `Revision(5: 'line one\nline\ttwo\x01')`,
		},
		{
			name: "non-printable unicode is escaped",
			rev:  NewRevision(7, "r7", WithLog("a\u0085b\u00a0c\u2028d\U000e0001")),
			want: `Revision(7: 'a\x85b\xa0c\u2028d\U000e0001')`,
		},
		{
			name: "printable unicode is kept",
			rev:  NewRevision(8, "r8", WithLog("caf\u00e9 \U0001f600")),
			want: "Revision(8: 'caf\u00e9 \U0001f600')",
		},
		{
			name: "backslash is escaped",
			rev:  NewRevision(6, "r6", WithLog(`C:\repo`)),
			want: `Revision(6: 'C:\\repo')`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rev.String())
		})
	}
}

func TestNewDir(t *testing.T) {
	d := NewDir("./test", "test", "fake://fake/repo/base")

	assert.Equal(t, "./test", d.Path)
	assert.Equal(t, "test", d.Name)
	assert.Equal(t, "fake://fake/repo/base", d.Root)
	assert.True(t, d.IsRoot())
	assert.False(t, d.RevID.Valid)
	assert.Empty(t, d.Subdirs)
	assert.Empty(t, d.Files)
	assert.Equal(t, "Dir(u'./test', 0 subdirs, 0 files)", d.String())
}

func TestDir_String_LiveCounts(t *testing.T) {
	d := NewDir(".", "/", "fake://fake/repo/base")
	d.Subdirs = []string{"./test", "./another_test"}

	assert.Equal(t, "Dir(u'.', 2 subdirs, 0 files)", d.String())

	d.Files = append(d.Files, "./a.txt")
	assert.Equal(t, "Dir(u'.', 2 subdirs, 1 files)", d.String())
}

func TestFile_String_EscapesPath(t *testing.T) {
	f := NewFile("./odd\u2028name", "odd\u2028name", 1, "root")
	assert.Equal(t, `File(u'./odd\u2028name', type: other)`, f.String())
}

func TestNewFile(t *testing.T) {
	f := NewFile("./test.foo", "test.foo", 0, "fake://fake/repo/base")

	assert.Equal(t, "./test.foo", f.Path)
	assert.Equal(t, "test.foo", f.Name)
	assert.Equal(t, int64(0), f.Size)
	assert.Equal(t, ".foo", f.Ext)
	assert.Equal(t, TypeOther, f.Type)
	assert.False(t, f.InDir.Valid)
	assert.False(t, f.RevID.Valid)
	assert.Equal(t, "File(u'./test.foo', type: other)", f.String())
}

func TestNewFile_Ext(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "a.TXT", want: ".txt"},
		{name: "test.txt", want: ".txt"},
		{name: "Makefile", want: ""},
		{name: ".bashrc", want: ""},
		{name: "..hidden", want: ""},
		{name: ".config.YAML", want: ".yaml"},
		{name: "archive.tar.GZ", want: ".gz"},
		{name: "trailing.", want: "."},
		{name: "dir.d/readme", want: ""},
		{name: `a.b\c`, want: `.b\c`},
		{name: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFile("./"+tt.name, tt.name, 1, "root")
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Ext)
			assert.Equal(t, "other", f.Type)
		})
	}
}

func TestEntity_Keys(t *testing.T) {
	assert.Equal(t, "revision:12", NewRevision(12, "r").Key())
	assert.Equal(t, "dir:./src", NewDir("./src", "src", "root").Key())
	assert.Equal(t, "file:./src/main.go", NewFile("./src/main.go", "main.go", 10, "root").Key())
}
