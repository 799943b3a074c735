package bconfig

// BaseConfig contains basic properties required for all Config types
type BaseConfig interface {
	// GetType returns the type name
	GetType() string
}

// Header defines the common parts of *Config implementations
type Header struct {
	Type string `yaml:"type"`
}

// GetType returns the type name
func (header *Header) GetType() string {
	return header.Type
}
