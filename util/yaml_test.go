package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

type yamlSinkDoc struct {
	Table string
	Level yamlLevelName
}

type yamlLevelName string

var yamlTestTempLocation string

func (ln *yamlLevelName) UnmarshalYAML(node *yaml.Node) error {
	yamlTestTempLocation = GetYamlLocation(node)
	if node.Value == "loud" {
		return NewYamlError(node, "unknown level")
	}
	*ln = yamlLevelName(node.Value)
	return nil
}

func TestYAMLUnmarshal(t *testing.T) {
	var doc yamlSinkDoc

	assert.NoError(t, UnmarshalYamlString("table: logs\nlevel: ERROR\n", &doc))
	assert.Equal(t, yamlSinkDoc{Table: "logs", Level: "ERROR"}, doc)

	assert.ErrorContains(t, UnmarshalYamlString(`
table: logs
level: loud
`, &doc), "yaml line 3:8: unknown level")
	assert.Equal(t, "yaml line 3:8", yamlTestTempLocation)

	assert.ErrorContains(t, UnmarshalYamlString("table: logs\ntabel: logs2\n", &doc), "field tabel not found")
}

func TestYAMLLocationAnchor(t *testing.T) {
	var root yaml.Node
	assert.NoError(t, yaml.Unmarshal([]byte("backend: &primary\n  type: memory\n"), &root))
	backend := root.Content[0].Content[1]
	assert.Regexp(t, `^yaml line \d+:\d+ primary$`, GetYamlLocation(backend))
}

type yamlStrictType struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func TestYAMLDecodeNodeKnownFields(t *testing.T) {
	var root yaml.Node
	assert.Nil(t, yaml.Unmarshal([]byte("host: localhost\nport: 5432\n"), &root))
	var st yamlStrictType
	assert.Nil(t, DecodeYamlNodeKnownFields(&root, &st))
	assert.Equal(t, yamlStrictType{Host: "localhost", Port: 5432}, st)

	var bad yaml.Node
	assert.Nil(t, yaml.Unmarshal([]byte("host: localhost\nportt: 5432\n"), &bad))
	assert.ErrorContains(t, DecodeYamlNodeKnownFields(&bad, &yamlStrictType{}), "field portt not found")
}
