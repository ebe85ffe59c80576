package terrain

// Material identifies what a solid block is made of. Water is not a solid
// material: it exists only as the fluid layer filled below sea level, and
// mutation entry points must reject it.
type Material uint8

const (
	Grass Material = iota + 1
	Dirt
	Stone
	Wood
	Sand
	Snow
	Water
)

var materialNames = map[Material]string{
	Grass: "grass",
	Dirt:  "dirt",
	Stone: "stone",
	Wood:  "wood",
	Sand:  "sand",
	Snow:  "snow",
	Water: "water",
}

var materialIndex = func() map[string]Material {
	m := make(map[string]Material, len(materialNames))
	for id, name := range materialNames {
		m[name] = id
	}
	return m
}()

func (m Material) String() string {
	if s, ok := materialNames[m]; ok {
		return s
	}
	return "unknown"
}

// Solid reports whether the material occupies collision space.
func (m Material) Solid() bool {
	return m != 0 && m != Water
}

func ParseMaterial(s string) (Material, bool) {
	m, ok := materialIndex[s]
	return m, ok
}
