package stagehand

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"go.uber.org/zap"
)

// ErrAssetExists is returned when a key is already taken and replace is false.
var ErrAssetExists = errors.New("stagehand: asset already exists")

// Loader reads assets from a file system and keeps them by key.
type Loader struct {
	fsys   fs.FS
	assets map[string]Asset
	audio  *audio.Context
	log    *zap.Logger
}

// NewLoader creates a loader over fsys. A nil fsys reads from the working
// directory.
func NewLoader(fsys fs.FS, log *zap.Logger) *Loader {
	if fsys == nil {
		fsys = os.DirFS(".")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		fsys:   fsys,
		assets: make(map[string]Asset),
		log:    log.Named("loader"),
	}
}

// SetFS switches the file system later loads read from.
func (l *Loader) SetFS(fsys fs.FS) { l.fsys = fsys }

// SetAudioContext enables Sound and Music loading.
func (l *Loader) SetAudioContext(ac *audio.Context) { l.audio = ac }

// Get returns the asset under key, or nil.
func (l *Loader) Get(key string) Asset {
	a, ok := l.assets[key]
	if !ok {
		l.log.Debug("asset not found", zap.String("key", key))
		return nil
	}
	return a
}

// Has reports whether key is loaded.
func (l *Loader) Has(key string) bool {
	_, ok := l.assets[key]
	return ok
}

// Len returns the number of loaded assets.
func (l *Loader) Len() int { return len(l.assets) }

// Add stores a under its key. With replace false an existing key is an error.
func (l *Loader) Add(a Asset, replace bool) error {
	key := a.Key()
	if _, ok := l.assets[key]; ok && !replace {
		l.log.Warn("asset key taken", zap.String("key", key))
		return fmt.Errorf("%w: %s", ErrAssetExists, key)
	}
	l.assets[key] = a
	l.log.Debug("asset loaded", zap.String("key", key), zap.Stringer("type", a.Type()))
	return nil
}

// Remove drops the asset under key. Reports whether it existed.
func (l *Loader) Remove(key string) bool {
	if _, ok := l.assets[key]; !ok {
		return false
	}
	delete(l.assets, key)
	return true
}

func (l *Loader) check(key string, replace bool) error {
	if _, ok := l.assets[key]; ok && !replace {
		l.log.Warn("asset key taken", zap.String("key", key))
		return fmt.Errorf("%w: %s", ErrAssetExists, key)
	}
	return nil
}

func (l *Loader) read(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("stagehand: read %s: %w", name, err)
	}
	return data, nil
}

// Image loads a PNG or JPEG as an ImageTexture.
func (l *Loader) Image(key, name string, replace bool) (*ImageTexture, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	img, _, err := ebitenutil.NewImageFromFileSystem(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("stagehand: load image %s: %w", name, err)
	}
	a := NewImageTexture(key, img)
	return a, l.Add(a, replace)
}

// Spritesheet loads an image cut into fw×fh frames.
func (l *Loader) Spritesheet(key, name string, fw, fh int, replace bool) (*Spritesheet, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	img, _, err := ebitenutil.NewImageFromFileSystem(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("stagehand: load spritesheet %s: %w", name, err)
	}
	a := NewSpritesheet(key, img, fw, fh)
	return a, l.Add(a, replace)
}

// JSON loads a JSON file, validating it parses.
func (l *Loader) JSON(key, name string, replace bool) (*JSONFile, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("stagehand: load json %s: invalid JSON", name)
	}
	a := &JSONFile{assetBase: assetBase{key: key, typ: AssetJSON}, Data: data}
	return a, l.Add(a, replace)
}

// Text loads a text file.
func (l *Loader) Text(key, name string, replace bool) (*StringFile, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	a := &StringFile{assetBase: assetBase{key: key, typ: AssetString}, Contents: string(data)}
	return a, l.Add(a, replace)
}

// LineByLine loads a text file split into lines.
func (l *Loader) LineByLine(key, name string, replace bool) (*LineByLine, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	a := newLineByLine(key, string(data))
	return a, l.Add(a, replace)
}

// Font loads a TrueType or OpenType font at size.
func (l *Loader) Font(key, name string, size float64, replace bool) (*FontAsset, error) {
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("stagehand: load font %s: %w", name, err)
	}
	a := &FontAsset{assetBase: assetBase{key: key, typ: AssetFont}, Source: src, Size: size}
	return a, l.Add(a, replace)
}

// Sound loads and fully decodes an ogg, wav or mp3 sound effect.
func (l *Loader) Sound(key, name string, replace bool) (*SoundAsset, error) {
	return l.sound(key, name, false, replace)
}

// Music loads an ogg, wav or mp3 track that loops when played.
func (l *Loader) Music(key, name string, replace bool) (*SoundAsset, error) {
	return l.sound(key, name, true, replace)
}

func (l *Loader) sound(key, name string, music, replace bool) (*SoundAsset, error) {
	if l.audio == nil {
		return nil, fmt.Errorf("stagehand: load sound %s: audio disabled", name)
	}
	if err := l.check(key, replace); err != nil {
		return nil, err
	}
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	a, err := newSoundAsset(key, name, data, l.audio, music)
	if err != nil {
		return nil, fmt.Errorf("stagehand: load sound %s: %w", name, err)
	}
	return a, l.Add(a, replace)
}
