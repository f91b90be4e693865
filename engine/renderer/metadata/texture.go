package metadata

// TextureData is a decoded image ready for upload.
type TextureData struct {
	Pixels   []byte
	Width    uint32
	Height   uint32
	Channels uint8
}

func (t *TextureData) Free() {
	t.Pixels = nil
}

// ShaderData holds a SPIR-V module as 32-bit words.
type ShaderData struct {
	Stage string
	Code  []uint32
}

func (s *ShaderData) Free() {
	s.Code = nil
}
