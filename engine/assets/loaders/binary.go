package loaders

import (
	"os"
	"path/filepath"

	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

// BinaryLoader reads a file verbatim.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		ID:       core.NewID(),
		Type:     metadata.ResourceTypeBinary,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     buf,
	}, nil
}

func (bl *BinaryLoader) Unload(res *metadata.Resource) error {
	res.Free()
	return nil
}
