package stagehand

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// GID flag bits (same convention as the Tiled map format).
const (
	tileFlipH    uint32 = 1 << 31 // horizontal flip
	tileFlipV    uint32 = 1 << 30 // vertical flip
	tileFlipD    uint32 = 1 << 29 // diagonal flip (90° rotation)
	tileFlagMask uint32 = tileFlipH | tileFlipV | tileFlipD
)

// TiledMap is the subset of a Tiled JSON export the engine reads.
type TiledMap struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	TileWidth  int          `json:"tilewidth"`
	TileHeight int          `json:"tileheight"`
	Layers     []TiledLayer `json:"layers"`
}

// TiledLayer is one layer of a Tiled map. Only tile layers carry Data.
type TiledLayer struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Data    []uint32 `json:"data"`
	Visible *bool    `json:"visible"`
	Opacity float64  `json:"opacity"`
}

// ParseTiledMap decodes a Tiled JSON export.
func ParseTiledMap(data []byte) (*TiledMap, error) {
	var m TiledMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("stagehand: parse tiled map: %w", err)
	}
	if m.TileWidth <= 0 || m.TileHeight <= 0 {
		return nil, fmt.Errorf("stagehand: parse tiled map: tile size %dx%d must be positive", m.TileWidth, m.TileHeight)
	}
	return &m, nil
}

// Layer returns the layer named name, or nil.
func (m *TiledMap) Layer(name string) *TiledLayer {
	for i := range m.Layers {
		if m.Layers[i].Name == name {
			return &m.Layers[i]
		}
	}
	return nil
}

// Tile is a decoded cell. ID is the zero-based tileset index, -1 when empty.
type Tile struct {
	ID                  int
	FlipH, FlipV, FlipD bool
}

func decodeTile(gid uint32) Tile {
	base := gid &^ tileFlagMask
	if base == 0 {
		return Tile{ID: -1}
	}
	return Tile{
		ID:    int(base) - 1,
		FlipH: gid&tileFlipH != 0,
		FlipV: gid&tileFlipV != 0,
		FlipD: gid&tileFlipD != 0,
	}
}

// TilemapLayer is a grid of tiles drawn from a tileset texture. Only tiles
// inside the viewport are drawn.
type TilemapLayer struct {
	Actor

	Name                  string
	Width, Height         int
	TileWidth, TileHeight int
	TextureKey            string

	data    []uint32
	texture *ImageTexture
}

// NewTilemapLayer creates an empty layer of w×h tiles.
func NewTilemapLayer(name string, w, h, tw, th int, textureKey string) *TilemapLayer {
	l := &TilemapLayer{
		Name: name, Width: w, Height: h,
		TileWidth: tw, TileHeight: th,
		TextureKey: textureKey,
		data:       make([]uint32, w*h),
	}
	l.Defaults()
	l.ID = name
	return l
}

func (l *TilemapLayer) inBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < l.Width && ty < l.Height
}

// TileAt returns the tile at (tx, ty). Out-of-range cells are empty.
func (l *TilemapLayer) TileAt(tx, ty int) Tile {
	if !l.inBounds(tx, ty) {
		return Tile{ID: -1}
	}
	return decodeTile(l.data[ty*l.Width+tx])
}

// SetTile sets the tileset index at (tx, ty); -1 clears it.
func (l *TilemapLayer) SetTile(tx, ty, id int) {
	if !l.inBounds(tx, ty) {
		return
	}
	l.data[ty*l.Width+tx] = uint32(id + 1)
}

// SetData replaces the raw GIDs. data must hold Width*Height entries.
func (l *TilemapLayer) SetData(data []uint32) {
	if len(data) != l.Width*l.Height {
		panic(fmt.Sprintf("stagehand: tile data length %d, want %d", len(data), l.Width*l.Height))
	}
	l.data = data
}

func (l *TilemapLayer) resolve() *ImageTexture {
	if l.texture != nil || l.TextureKey == "" || l.ctx == nil {
		return l.texture
	}
	switch a := l.ctx.Loader.Get(l.TextureKey).(type) {
	case *ImageTexture:
		l.texture = a
	case *Spritesheet:
		l.texture = &a.ImageTexture
	default:
		l.ctx.Log.Warn("tileset texture not found", zap.String("key", l.TextureKey), zap.String("layer", l.Name))
		l.TextureKey = ""
	}
	return l.texture
}

// visibleRange returns the tile span [c0, c1) × [r0, r1) covering the viewport.
func (l *TilemapLayer) visibleRange(sx, sy, tw, th float64, vx, vy, vw, vh int) (c0, r0, c1, r1 int) {
	c0 = max(int(math.Floor((float64(vx)-sx)/tw)), 0)
	r0 = max(int(math.Floor((float64(vy)-sy)/th)), 0)
	c1 = min(int(math.Ceil((float64(vx+vw)-sx)/tw)), l.Width)
	r1 = min(int(math.Ceil((float64(vy+vh)-sy)/th)), l.Height)
	return
}

// Draw draws visible tiles, then children. Layer rotation is ignored.
func (l *TilemapLayer) Draw(vx, vy, vw, vh int) {
	ctx := l.ctx
	if ctx == nil || !l.Visible || l.destroyed {
		return
	}
	tex := l.resolve()
	if target := ctx.Target; target != nil && tex != nil && l.TileWidth > 0 && l.TileHeight > 0 {
		st := ctx.State
		zx, zy := st.ZoomX*l.ScaleX, st.ZoomY*l.ScaleY
		tw, th := float64(l.TileWidth), float64(l.TileHeight)
		sx, sy := st.ScreenPosition(&l.Entity, vx, vy)
		cols := max(tex.Width/l.TileWidth, 1)
		cs := colorScale(ColorWhite, st.EffectiveAlpha(&l.Entity))

		c0, r0, c1, r1 := l.visibleRange(sx, sy, tw*zx, th*zy, vx, vy, vw, vh)
		for ty := r0; ty < r1; ty++ {
			for tx := c0; tx < c1; tx++ {
				t := decodeTile(l.data[ty*l.Width+tx])
				if t.ID < 0 {
					continue
				}
				srcX, srcY := (t.ID%cols)*l.TileWidth, (t.ID/cols)*l.TileHeight
				if srcY+l.TileHeight > tex.Height {
					continue
				}
				var op ebiten.DrawImageOptions
				if t.FlipD {
					op.GeoM.SetElement(0, 0, 0)
					op.GeoM.SetElement(0, 1, 1)
					op.GeoM.SetElement(1, 0, 1)
					op.GeoM.SetElement(1, 1, 0)
				}
				if t.FlipH {
					op.GeoM.Scale(-1, 1)
					op.GeoM.Translate(tw, 0)
				}
				if t.FlipV {
					op.GeoM.Scale(1, -1)
					op.GeoM.Translate(0, th)
				}
				op.GeoM.Scale(zx, zy)
				op.GeoM.Translate(sx+float64(tx)*tw*zx, sy+float64(ty)*th*zy)
				op.ColorScale = cs
				src := tex.Image.SubImage(image.Rect(srcX, srcY, srcX+l.TileWidth, srcY+l.TileHeight)).(*ebiten.Image)
				target.DrawImage(src, &op)
			}
		}
	}
	l.Actor.Draw(vx, vy, vw, vh)
}

// Tilemap builds TilemapLayer children from a Tiled JSON asset and answers
// wall queries across chosen layers.
type Tilemap struct {
	Actor

	TextureKey string
	MapKey     string

	// Width and Height are the map size in tiles.
	Width, Height         int
	TileWidth, TileHeight int

	tiled     *TiledMap
	layers    map[string]*TilemapLayer
	walls     []*TilemapLayer
	wallTypes map[int]Direction
}

// NewTilemap creates a tilemap at (x, y) drawing tiles from the texture
// under textureKey, with layout read from the JSON asset under mapKey.
func NewTilemap(x, y float64, textureKey, mapKey string) *Tilemap {
	m := &Tilemap{TextureKey: textureKey, MapKey: mapKey}
	m.Defaults()
	m.X, m.Y = x, y
	return m
}

// SetMap uses m directly instead of the asset under MapKey.
func (m *Tilemap) SetMap(tm *TiledMap) {
	m.tiled = tm
	m.Width = max(m.Width, tm.Width)
	m.Height = max(m.Height, tm.Height)
	m.TileWidth, m.TileHeight = tm.TileWidth, tm.TileHeight
}

// Map returns the parsed Tiled map, loading it from MapKey when needed.
func (m *Tilemap) Map() *TiledMap {
	if m.tiled != nil || m.MapKey == "" || m.ctx == nil {
		return m.tiled
	}
	f, ok := m.ctx.Loader.Get(m.MapKey).(*JSONFile)
	if !ok {
		m.ctx.Log.Warn("tilemap json not found", zap.String("key", m.MapKey))
		return nil
	}
	tm, err := ParseTiledMap(f.Data)
	if err != nil {
		m.ctx.Log.Error("tilemap json", zap.String("key", m.MapKey), zap.Error(err))
		return nil
	}
	m.SetMap(tm)
	return tm
}

// CreateLayer adds the tile layer named name as a child. Returns nil when
// the map or layer is missing.
func (m *Tilemap) CreateLayer(name string) *TilemapLayer {
	tm := m.Map()
	if tm == nil {
		return nil
	}
	tl := tm.Layer(name)
	if tl == nil || (tl.Type != "" && tl.Type != "tilelayer") {
		m.logger().Debug("tile layer not found", zap.String("layer", name))
		return nil
	}
	w, h := tl.Width, tl.Height
	if w == 0 || h == 0 {
		w, h = tm.Width, tm.Height
	}
	layer := NewTilemapLayer(name, w, h, tm.TileWidth, tm.TileHeight, m.TextureKey)
	if len(tl.Data) == w*h {
		copy(layer.data, tl.Data)
	}
	if tl.Opacity > 0 {
		layer.Alpha = tl.Opacity
	}
	if tl.Visible != nil && !*tl.Visible {
		layer.Visible = false
	}
	m.Add(layer)
	if m.layers == nil {
		m.layers = make(map[string]*TilemapLayer)
	}
	m.layers[name] = layer
	m.Width = max(m.Width, w)
	m.Height = max(m.Height, h)
	return layer
}

// CreateAllLayers creates every tile layer in map order.
func (m *Tilemap) CreateAllLayers() []*TilemapLayer {
	tm := m.Map()
	if tm == nil {
		return nil
	}
	var out []*TilemapLayer
	for _, tl := range tm.Layers {
		if l := m.CreateLayer(tl.Name); l != nil {
			out = append(out, l)
		}
	}
	return out
}

// Layer returns a created layer by name, or nil.
func (m *Tilemap) Layer(name string) *TilemapLayer {
	return m.layers[name]
}

// SetWalls selects the layers wall queries consult. Unknown names are skipped.
func (m *Tilemap) SetWalls(names ...string) []*TilemapLayer {
	m.walls = m.walls[:0]
	for _, name := range names {
		if l := m.layers[name]; l != nil {
			m.walls = append(m.walls, l)
		}
	}
	return m.walls
}

// SetWallID makes tiles with id block only movement into them from dir.
func (m *Tilemap) SetWallID(id int, dir Direction) {
	if m.wallTypes == nil {
		m.wallTypes = make(map[int]Direction)
	}
	m.wallTypes[id] = dir
}

// IsWall reports whether any wall layer has a tile at (tx, ty).
func (m *Tilemap) IsWall(tx, ty int) bool {
	for _, l := range m.walls {
		if l.TileAt(tx, ty).ID >= 0 {
			return true
		}
	}
	return false
}

// IsWallFrom is IsWall for movement in direction dir: directional wall tiles
// only block their own direction.
func (m *Tilemap) IsWallFrom(tx, ty int, dir Direction) bool {
	for _, l := range m.walls {
		t := l.TileAt(tx, ty)
		if wd, ok := m.wallTypes[t.ID]; ok {
			if wd == dir {
				return true
			}
			continue
		}
		if t.ID >= 0 {
			return true
		}
	}
	return false
}

// WidthInPixels returns the unscaled map width.
func (m *Tilemap) WidthInPixels() int { return m.Width * m.TileWidth }

// HeightInPixels returns the unscaled map height.
func (m *Tilemap) HeightInPixels() int { return m.Height * m.TileHeight }

// WorldToTile converts world coordinates into tile coordinates.
func (m *Tilemap) WorldToTile(wx, wy float64) (int, int) {
	if m.TileWidth <= 0 || m.TileHeight <= 0 {
		return 0, 0
	}
	ox, oy := m.WorldPosition()
	return int(math.Floor((wx - ox) / float64(m.TileWidth))), int(math.Floor((wy - oy) / float64(m.TileHeight)))
}

// TileToWorld returns the world position of a tile's top-left corner.
func (m *Tilemap) TileToWorld(tx, ty int) (float64, float64) {
	ox, oy := m.WorldPosition()
	return ox + float64(tx*m.TileWidth), oy + float64(ty*m.TileHeight)
}

// SetCameraBounds bounds cam to the map area.
func (m *Tilemap) SetCameraBounds(cam *Camera) {
	x, y := m.WorldPosition()
	cam.SetBounds(x, y, float64(m.WidthInPixels()), float64(m.HeightInPixels()))
}

func (m *Tilemap) logger() *zap.Logger {
	if m.ctx != nil {
		return m.ctx.Log
	}
	return zap.NewNop()
}
