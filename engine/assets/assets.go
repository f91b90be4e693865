package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/toybricks/engine/assets/loaders"
	"github.com/spaghettifunk/toybricks/engine/containers"
	"github.com/spaghettifunk/toybricks/engine/core"
	"github.com/spaghettifunk/toybricks/engine/renderer/metadata"
)

const reloadQueueSize = 64

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the asset tree under a root directory, loads assets
// through per-type loaders and optionally reports changed files.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	fsnotify *fsnotify.Watcher
	changes  *containers.RingQueue[string]
	done     chan struct{}
	wg       sync.WaitGroup
	isClosed bool
}

func NewAssetManager(root string) *AssetManager {
	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		changes: containers.NewRingQueue[string](reloadQueueSize),
		done:    make(chan struct{}),
	}
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.ModelLoader{})
	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})
	return am
}

// Initialize indexes the asset tree. With watch set, file changes are
// queued for DrainChanges.
func (am *AssetManager) Initialize(watch bool) error {
	if _, err := os.Stat(am.root); err != nil {
		return fmt.Errorf("asset root %s: %w", am.root, core.ErrAssetNotFound)
	}
	if !watch {
		return am.walk(am.root, nil)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	am.fsnotify = w
	if err := am.walk(am.root, w.Add); err != nil {
		w.Close()
		am.fsnotify = nil
		return err
	}
	am.wg.Add(1)
	go am.start()
	core.LogInfo("watching %s for asset changes", am.root)
	return nil
}

func (am *AssetManager) Root() string { return am.root }

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads rel (relative to the root) with the loader for resourceType.
func (am *AssetManager) LoadAsset(rel string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path := filepath.Join(am.root, rel)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, core.ErrAssetNotFound)
	}
	loader, ok := am.loaders[resourceType]
	if !ok {
		return nil, fmt.Errorf("no loader for %s: %w", resourceType, core.ErrUnknownAssetType)
	}

	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[am.key(path)] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()

	core.LogDebug("loaded %s %s (%d bytes, id %s)", resourceType, rel, res.DataSize, core.ShortID(res.ID))
	return res, nil
}

func (am *AssetManager) LoadModel(rel string) (*metadata.Mesh, error) {
	res, err := am.LoadAsset(rel, metadata.ResourceTypeMesh, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.Mesh), nil
}

func (am *AssetManager) LoadTexture(rel string) (*metadata.TextureData, error) {
	res, err := am.LoadAsset(rel, metadata.ResourceTypeImage, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.TextureData), nil
}

// LoadShader loads a SPIR-V module. An empty stage is inferred from the file name.
func (am *AssetManager) LoadShader(rel, stage string) (*metadata.ShaderData, error) {
	res, err := am.LoadAsset(rel, metadata.ResourceTypeShader, &loaders.ShaderParams{Stage: stage})
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ShaderData), nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	loader, ok := am.loaders[res.Type]
	if !ok {
		return core.ErrUnknownAssetType
	}
	return loader.Unload(res)
}

// Known reports whether rel is in the index.
func (am *AssetManager) Known(rel string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.ToSlash(rel)]
	return info, ok
}

// DrainChanges returns the paths, relative to the root, changed since the
// last call.
func (am *AssetManager) DrainChanges() []string {
	var out []string
	for {
		p, err := am.changes.Dequeue()
		if err != nil {
			return out
		}
		out = append(out, p)
	}
}

// Shutdown stops the watcher goroutine, if any.
func (am *AssetManager) Shutdown() {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.fsnotify != nil {
		close(am.done)
		am.wg.Wait()
	}
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)
		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)
		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.walk(e.Name, am.fsnotify.Add); err != nil {
				core.LogWarn("asset watcher: %s", err)
			}
			return
		}
	}
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		if !am.handleFileEvent(e.Name) {
			return
		}
		rel := am.key(e.Name)
		if err := am.changes.Enqueue(rel); err != nil {
			if errors.Is(err, containers.ErrQueueFull) {
				core.LogWarn("asset reload queue full, dropping %s", rel)
			}
		}
	}
}

// walk indexes every file below path and calls watch on every directory.
// Hidden directories are skipped.
func (am *AssetManager) walk(path string, watch func(string) error) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if walkPath != path && strings.HasPrefix(fi.Name(), ".") {
				return filepath.SkipDir
			}
			if watch != nil {
				return watch(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes path and reports whether it is a known asset type.
func (am *AssetManager) handleFileEvent(path string) bool {
	assetType, ok := determineAssetType(path)
	if !ok {
		return false
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[am.key(path)] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return true
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, am.key(path))
}

func (am *AssetManager) key(path string) string {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func determineAssetType(path string) (metadata.ResourceType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return metadata.ResourceTypeShader, true
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage, true
	case ".obj":
		return metadata.ResourceTypeMesh, true
	case ".bin":
		return metadata.ResourceTypeBinary, true
	}
	return 0, false
}
