package conversion_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/services/conversion"
	"github.com/KirkDiggler/rpg-sheet/internal/testutils/builders"
)

type CodecTestSuite struct {
	suite.Suite

	now  time.Time
	char *sw5e.Character
}

func (s *CodecTestSuite) SetupTest() {
	s.now = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	s.char = builders.NewCharacterBuilder().
		WithSkill(sw5e.SkillPiloting, true).
		WithEquipment("blaster-pistol", 1).
		WithPower(sw5e.Power{ID: "force-push", Name: "Force Push", Level: 1, Kind: sw5e.PowerKindForce}).
		Build()
}

func (s *CodecTestSuite) TestExportEnvelope() {
	data, err := conversion.Export(s.char, "SW5e Sheet", s.now)
	s.Require().NoError(err)

	var fields map[string]json.RawMessage
	s.Require().NoError(json.Unmarshal(data, &fields))
	s.JSONEq(`"1.0"`, string(fields["schemaVersion"]))
	s.JSONEq(`"2025-04-02T09:30:00Z"`, string(fields["exportDate"]))
	s.JSONEq(`"SW5e Sheet"`, string(fields["applicationName"]))
	s.Contains(string(data), "\n  \"character\"")
}

func (s *CodecTestSuite) TestRoundTripEnvelope() {
	data, err := conversion.Export(s.char, "SW5e Sheet", s.now)
	s.Require().NoError(err)

	got, err := conversion.Import(data)
	s.Require().NoError(err)
	s.Equal(s.char, got)
}

func (s *CodecTestSuite) TestImportBareCharacter() {
	data, err := json.Marshal(s.char)
	s.Require().NoError(err)

	got, err := conversion.Import(data)
	s.Require().NoError(err)
	s.Equal(s.char, got)
}

func (s *CodecTestSuite) TestDecodeKeepsEnvelopeMetadata() {
	data, err := conversion.Export(s.char, "SW5e Sheet", s.now)
	s.Require().NoError(err)

	doc, err := conversion.Decode(data)
	s.Require().NoError(err)
	s.Equal("1.0", doc.SchemaVersion)
	s.Equal("SW5e Sheet", doc.ApplicationName)
}

func (s *CodecTestSuite) TestImportAcceptsMinorVersions() {
	_, err := conversion.Import([]byte(`{"schemaVersion":"1.3","character":{"name":"Kira"}}`))
	s.NoError(err)
}

func (s *CodecTestSuite) TestImportRejections() {
	testCases := []struct {
		name string
		data string
	}{
		{name: "malformed json", data: `{"character":`},
		{name: "not an object", data: `[1,2,3]`},
		{name: "null", data: `null`},
		{name: "future major version", data: `{"schemaVersion":"2.0","character":{"name":"Kira"}}`},
		{name: "envelope without character", data: `{"schemaVersion":"1.0","character":null}`},
		{name: "wrong field type", data: `{"name":"Kira","level":"five"}`},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := conversion.Import([]byte(tc.data))
			s.Require().Error(err)
			s.Nil(got)
			s.True(errors.IsSerialization(err), "got %v", err)
		})
	}
}

func (s *CodecTestSuite) TestExportNilCharacter() {
	_, err := conversion.Export(nil, "SW5e Sheet", s.now)
	s.True(errors.IsInvalidArgument(err))
}

func (s *CodecTestSuite) TestExportYAML() {
	data, err := conversion.ExportYAML(s.char, "SW5e Sheet", s.now)
	s.Require().NoError(err)

	out := string(data)
	s.Contains(out, "schemaVersion: \"1.0\"")
	s.Contains(out, "applicationName: SW5e Sheet")
	s.Contains(out, "  name: Kira Tal")
	s.NotContains(out, "{\"")

	var decoded struct {
		Character struct {
			Name  string `yaml:"name"`
			Level int    `yaml:"level"`
		} `yaml:"character"`
	}
	s.Require().NoError(yaml.Unmarshal(data, &decoded))
	s.Equal("Kira Tal", decoded.Character.Name)
	s.Equal(1, decoded.Character.Level)
}

func TestCodecTestSuite(t *testing.T) {
	suite.Run(t, new(CodecTestSuite))
}
