package image

import (
	"errors"
	"fmt"
	"os"

	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"

	"github.com/fxamacker/cbor/v2"
)

// Version is the image format written by this build.
const Version = 1

var (
	ErrVersion = errors.New("unsupported image version")
	ErrInvalid = errors.New("invalid image")
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Image is a compiled program detached from the compiler: the intern table
// in handle order, every function, and which one is the script.
type Image struct {
	Version   int                 `cbor:"1,keyasint"`
	Strings   []string            `cbor:"2,keyasint"`
	Functions []*codegen.Function `cbor:"3,keyasint"`
	Script    int                 `cbor:"4,keyasint"`
}

// New snapshots the given tables.
func New(strings *value.Interner, funcs *codegen.FunctionTable, script int) *Image {
	return &Image{
		Version:   Version,
		Strings:   strings.Strings(),
		Functions: funcs.All(),
		Script:    script,
	}
}

// Tables rebuilds the intern and function tables. Handles and function
// indexes are the same as when the image was taken.
func (img *Image) Tables() (*value.Interner, *codegen.FunctionTable) {
	funcs := codegen.NewFunctionTable()
	for _, fn := range img.Functions {
		funcs.Add(fn)
	}
	return value.NewInternerFrom(img.Strings), funcs
}

// Validate checks that every reference inside the image resolves, so that
// running it cannot index outside its own tables.
func (img *Image) Validate() error {
	if img.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, img.Version)
	}
	if img.Script < 0 || img.Script >= len(img.Functions) {
		return fmt.Errorf("%w: script index %d out of %d functions", ErrInvalid, img.Script, len(img.Functions))
	}

	seen := make(map[string]struct{}, len(img.Strings))
	for _, s := range img.Strings {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate string %q", ErrInvalid, s)
		}
		seen[s] = struct{}{}
	}

	for i, fn := range img.Functions {
		if fn == nil || fn.Chunk == nil {
			return fmt.Errorf("%w: function %d has no chunk", ErrInvalid, i)
		}
		if err := fn.Chunk.Validate(); err != nil {
			return fmt.Errorf("%w: function %s: %v", ErrInvalid, fn.DisplayName(), err)
		}
		for j, c := range fn.Chunk.Constants {
			switch {
			case c.IsString() && int(c.StringHandle()) >= len(img.Strings):
				return fmt.Errorf("%w: function %s constant %d: unknown string %d", ErrInvalid, fn.DisplayName(), j, c.StringHandle())
			case c.IsFunction() && (c.FunctionIndex() < 0 || c.FunctionIndex() >= len(img.Functions)):
				return fmt.Errorf("%w: function %s constant %d: unknown function %d", ErrInvalid, fn.DisplayName(), j, c.FunctionIndex())
			}
		}
	}

	return nil
}

// Marshal encodes img as canonical CBOR.
func Marshal(img *Image) ([]byte, error) {
	return encMode.Marshal(img)
}

// Unmarshal decodes and validates an image.
func Unmarshal(data []byte) (*Image, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("image: unmarshal: %w", err)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return &img, nil
}

// Save writes img to path.
func Save(path string, img *Image) error {
	data, err := Marshal(img)
	if err != nil {
		return fmt.Errorf("image: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads and validates the image at path.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
