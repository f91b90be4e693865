package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

const spirvMagic uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("invalid SPIR-V module")

// ShaderParams names the pipeline stage of the module. When nil the stage is
// taken from the file name (vert/frag).
type ShaderParams struct {
	Stage string
}

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	code, err := ParseSPIRV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stage := stageFromName(path)
	if p, ok := params.(*ShaderParams); ok && p != nil && p.Stage != "" {
		stage = p.Stage
	}
	if stage == "" {
		return nil, fmt.Errorf("%s: cannot determine shader stage", path)
	}

	return &metadata.Resource{
		ID:       core.NewID(),
		Type:     metadata.ResourceTypeShader,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data: &metadata.ShaderData{
			Stage: stage,
			Code:  code,
		},
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Free()
	return nil
}

// ParseSPIRV converts a little-endian module into words and checks the magic
// number.
func ParseSPIRV(b []byte) ([]uint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: size %d is not a positive multiple of 4", ErrInvalidSPIRV, len(b))
	}
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if code[0] != spirvMagic {
		return nil, fmt.Errorf("%w: bad magic %#08x", ErrInvalidSPIRV, code[0])
	}
	return code, nil
}

func stageFromName(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "vert"):
		return "vertex"
	case strings.Contains(name, "frag"):
		return "fragment"
	}
	return ""
}
