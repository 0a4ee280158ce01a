package stagehand

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// AssetType identifies what an Asset holds.
type AssetType uint8

const (
	AssetImage AssetType = iota
	AssetSpritesheet
	AssetJSON
	AssetString
	AssetLines
	AssetFont
	AssetSound
	AssetMusic
)

func (t AssetType) String() string {
	switch t {
	case AssetImage:
		return "image"
	case AssetSpritesheet:
		return "spritesheet"
	case AssetJSON:
		return "json"
	case AssetString:
		return "string"
	case AssetLines:
		return "lines"
	case AssetFont:
		return "font"
	case AssetSound:
		return "sound"
	case AssetMusic:
		return "music"
	default:
		return "unknown"
	}
}

// Asset is a loaded resource keyed by string.
type Asset interface {
	Key() string
	Type() AssetType
}

type assetBase struct {
	key string
	typ AssetType
}

func (a *assetBase) Key() string     { return a.key }
func (a *assetBase) Type() AssetType { return a.typ }

// ImageTexture is a loaded image.
type ImageTexture struct {
	assetBase
	Image         *ebiten.Image
	Width, Height int
}

// NewImageTexture wraps img as an asset under key.
func NewImageTexture(key string, img *ebiten.Image) *ImageTexture {
	b := img.Bounds()
	return &ImageTexture{
		assetBase: assetBase{key: key, typ: AssetImage},
		Image:     img,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
}

// Animation is a named frame sequence on a spritesheet.
type Animation struct {
	Key       string
	Frames    []int
	FrameRate int // frames per second
	Loop      bool
}

// Spritesheet is an image cut into equal frames, numbered row-major.
type Spritesheet struct {
	ImageTexture
	FrameWidth, FrameHeight int

	anims map[string]*Animation
}

// NewSpritesheet wraps img as a spritesheet of fw×fh frames. Non-positive
// frame sizes fall back to the full image.
func NewSpritesheet(key string, img *ebiten.Image, fw, fh int) *Spritesheet {
	s := &Spritesheet{ImageTexture: *NewImageTexture(key, img)}
	s.typ = AssetSpritesheet
	if fw <= 0 {
		fw = s.Width
	}
	if fh <= 0 {
		fh = s.Height
	}
	s.FrameWidth, s.FrameHeight = fw, fh
	return s
}

// Columns returns the number of frames per row.
func (s *Spritesheet) Columns() int {
	if s.FrameWidth <= 0 {
		return 1
	}
	return max(s.Width/s.FrameWidth, 1)
}

// FrameCount returns the number of whole frames in the sheet.
func (s *Spritesheet) FrameCount() int {
	if s.FrameHeight <= 0 {
		return 1
	}
	return max(s.Columns()*(s.Height/s.FrameHeight), 1)
}

// FrameRect returns the source rectangle of frame, wrapped into range.
func (s *Spritesheet) FrameRect(frame int) image.Rectangle {
	n := s.FrameCount()
	frame %= n
	if frame < 0 {
		frame += n
	}
	cols := s.Columns()
	x := (frame % cols) * s.FrameWidth
	y := (frame / cols) * s.FrameHeight
	return image.Rect(x, y, x+s.FrameWidth, y+s.FrameHeight)
}

// AddAnim registers an animation and returns it. An existing key is replaced.
func (s *Spritesheet) AddAnim(key string, frames []int, frameRate int, loop bool) *Animation {
	if s.anims == nil {
		s.anims = make(map[string]*Animation)
	}
	a := &Animation{Key: key, Frames: frames, FrameRate: frameRate, Loop: loop}
	s.anims[key] = a
	return a
}

// AddAnimRange registers an animation over frames start..end inclusive,
// counting down when end < start.
func (s *Spritesheet) AddAnimRange(key string, start, end, frameRate int, loop bool) *Animation {
	var frames []int
	if start <= end {
		for f := start; f <= end; f++ {
			frames = append(frames, f)
		}
	} else {
		for f := start; f >= end; f-- {
			frames = append(frames, f)
		}
	}
	return s.AddAnim(key, frames, frameRate, loop)
}

// Anim returns the animation for key, or nil.
func (s *Spritesheet) Anim(key string) *Animation {
	return s.anims[key]
}

// JSONFile holds raw JSON for lazy decoding.
type JSONFile struct {
	assetBase
	Data []byte
}

// Decode unmarshals the file into v.
func (j *JSONFile) Decode(v any) error {
	if err := json.Unmarshal(j.Data, v); err != nil {
		return fmt.Errorf("stagehand: decode %s: %w", j.key, err)
	}
	return nil
}

// StringFile holds a text file.
type StringFile struct {
	assetBase
	Contents string
}

// LineByLine holds a text file split into lines with a read cursor.
type LineByLine struct {
	assetBase
	Lines []string
	index int
}

func newLineByLine(key, contents string) *LineByLine {
	contents = strings.ReplaceAll(contents, "\r\n", "\n")
	contents = strings.TrimSuffix(contents, "\n")
	var lines []string
	if contents != "" {
		lines = strings.Split(contents, "\n")
	}
	return &LineByLine{assetBase: assetBase{key: key, typ: AssetLines}, Lines: lines}
}

// Next returns the line at the cursor and advances it.
func (l *LineByLine) Next() (string, bool) {
	if l.index >= len(l.Lines) {
		return "", false
	}
	line := l.Lines[l.index]
	l.index++
	return line, true
}

// Line returns line i, or "" when out of range.
func (l *LineByLine) Line(i int) string {
	if i < 0 || i >= len(l.Lines) {
		return ""
	}
	return l.Lines[i]
}

// Len returns the number of lines.
func (l *LineByLine) Len() int { return len(l.Lines) }

// Reset rewinds the cursor.
func (l *LineByLine) Reset() { l.index = 0 }

// FontAsset is a TrueType/OpenType face source at a fixed size.
type FontAsset struct {
	assetBase
	Source *text.GoTextFaceSource
	Size   float64
}

// Face returns a face for drawing at the asset's size.
func (f *FontAsset) Face() *text.GoTextFace {
	return &text.GoTextFace{Source: f.Source, Size: f.Size}
}

// SoundAsset is a decoded sound effect or a music track. Music keeps the
// encoded file and decodes a fresh looping stream per player.
type SoundAsset struct {
	assetBase
	audio *audio.Context
	ext   string
	data  []byte
}

type audioStream interface {
	io.ReadSeeker
	Length() int64
}

func decodeAudio(ext string, data []byte) (audioStream, error) {
	r := bytes.NewReader(data)
	switch ext {
	case ".ogg":
		return vorbis.DecodeWithoutResampling(r)
	case ".wav":
		return wav.DecodeWithoutResampling(r)
	case ".mp3":
		return mp3.DecodeWithoutResampling(r)
	default:
		return nil, fmt.Errorf("unsupported audio format %q (supported: .ogg, .wav, .mp3)", ext)
	}
}

func newSoundAsset(key, name string, data []byte, ac *audio.Context, music bool) (*SoundAsset, error) {
	ext := strings.ToLower(path.Ext(name))
	a := &SoundAsset{assetBase: assetBase{key: key, typ: AssetSound}, audio: ac, ext: ext}
	if music {
		if _, err := decodeAudio(ext, data); err != nil {
			return nil, err
		}
		a.typ = AssetMusic
		a.data = data
		return a, nil
	}
	stream, err := decodeAudio(ext, data)
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	a.data = pcm
	return a, nil
}

// Player creates a new player. Music players loop forever.
func (a *SoundAsset) Player() (*audio.Player, error) {
	if a.typ == AssetSound {
		return a.audio.NewPlayerFromBytes(a.data), nil
	}
	stream, err := decodeAudio(a.ext, a.data)
	if err != nil {
		return nil, fmt.Errorf("stagehand: decode %s: %w", a.key, err)
	}
	return a.audio.NewPlayer(audio.NewInfiniteLoop(stream, stream.Length()))
}

// Play starts a one-shot player and returns it.
func (a *SoundAsset) Play() (*audio.Player, error) {
	p, err := a.Player()
	if err != nil {
		return nil, err
	}
	p.Play()
	return p, nil
}
