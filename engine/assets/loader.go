package assets

import "github.com/spaghettifunk/toybricks/engine/renderer/metadata"

// Loader turns a file into a Resource. params is loader specific and may be nil.
type Loader interface {
	Load(path string, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
