package formats

type Texture struct {
	Name string
	// complete dds file
	Data []byte
}

type TexturePack struct {
	Platform string
	Textures []Texture
}
