package image_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"loxvm/pkg/image"
	"loxvm/pkg/parser"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

const program = `
fun greet(name) { return "hi " + name; }
var who = "there";
print greet(who);
`

func compileImage(t *testing.T) *image.Image {
	t.Helper()

	strs := value.NewInterner()
	funcs := codegen.NewFunctionTable()
	script, err := parser.Compile(program, strs, funcs)
	if err != nil {
		t.Fatal(err)
	}
	return image.New(strs, funcs, script)
}

func TestRoundTrip(t *testing.T) {
	img := compileImage(t)

	data, err := image.Marshal(img)
	if err != nil {
		t.Fatal(err)
	}
	got, err := image.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.Script != img.Script || len(got.Functions) != len(img.Functions) {
		t.Fatalf("script %d/%d functions %d/%d", got.Script, img.Script, len(got.Functions), len(img.Functions))
	}
	for i, fn := range img.Functions {
		g := got.Functions[i]
		if g.Name != fn.Name || g.Arity != fn.Arity || !bytes.Equal(g.Chunk.Code, fn.Chunk.Code) {
			t.Errorf("function %d differs after round trip", i)
		}
	}

	strs, funcs := got.Tables()
	for h, s := range img.Strings {
		if got, ok := strs.Lookup(value.Handle(h)); !ok || got != s {
			t.Errorf("handle %d: %q, want %q", h, got, s)
		}
	}
	if funcs.Len() != len(img.Functions) {
		t.Errorf("function table has %d entries", funcs.Len())
	}
}

func TestCanonicalEncoding(t *testing.T) {
	a, err := image.Marshal(compileImage(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := image.Marshal(compileImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("compiling the same program twice produced different images")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*image.Image)
		want   error
	}{
		{"version", func(img *image.Image) { img.Version = 99 }, image.ErrVersion},
		{"script index", func(img *image.Image) { img.Script = len(img.Functions) }, image.ErrInvalid},
		{"duplicate string", func(img *image.Image) { img.Strings = append(img.Strings, img.Strings[0]) }, image.ErrInvalid},
		{"missing string", func(img *image.Image) { img.Strings = img.Strings[:1] }, image.ErrInvalid},
		{"missing chunk", func(img *image.Image) { img.Functions[0].Chunk = nil }, image.ErrInvalid},
		{"line table", func(img *image.Image) {
			c := img.Functions[0].Chunk
			c.Lines = c.Lines[:len(c.Lines)-1]
		}, image.ErrInvalid},
		{"function reference", func(img *image.Image) {
			c := img.Functions[img.Script].Chunk
			c.Constants = append(c.Constants, value.Function(len(img.Functions)))
		}, image.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := compileImage(t)
			tt.mutate(img)

			if err := img.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.loxc")
	img := compileImage(t)

	if err := image.Save(path, img); err != nil {
		t.Fatal(err)
	}
	got, err := image.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Strings) != len(img.Strings) {
		t.Errorf("strings %d, want %d", len(got.Strings), len(img.Strings))
	}

	if _, err := image.Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("loading a missing file should fail")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := image.Unmarshal([]byte("not cbor")); err == nil {
		t.Error("expected an error")
	}
}
