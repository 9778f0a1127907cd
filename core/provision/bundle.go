package provision

import (
	"errors"
	"strings"
)

// ZeroGUID identifies packages encrypted with the main key.
const ZeroGUID = "00000000000000000000000000000000"

// ErrUnavailable is returned when keys or mappings could not be obtained.
var ErrUnavailable = errors.New("provisioning unavailable")

// DynamicKey decrypts the packages of one pak file.
type DynamicKey struct {
	PakFilename string `json:"pakFilename" yaml:"pakFilename"`
	PakGuid     string `json:"pakGuid" yaml:"pakGuid"`
	Key         string `json:"key" yaml:"key"`
}

// Keys is the set of decryption keys for a game build.
type Keys struct {
	Build       string       `json:"build,omitempty" yaml:"build,omitempty"`
	MainKey     string       `json:"mainKey" yaml:"mainKey"`
	DynamicKeys []DynamicKey `json:"dynamicKeys" yaml:"dynamicKeys"`
}

// Valid reports whether the main key is present.
func (k *Keys) Valid() bool {
	return k != nil && strings.TrimSpace(k.MainKey) != ""
}

// ByGUID indexes every key by its lower-case GUID. The main key is stored
// under ZeroGUID.
func (k *Keys) ByGUID() map[string]string {
	out := make(map[string]string, len(k.DynamicKeys)+1)
	if k.MainKey != "" {
		out[ZeroGUID] = k.MainKey
	}
	for _, dk := range k.DynamicKeys {
		if dk.PakGuid == "" || dk.Key == "" {
			continue
		}
		out[NormalizeGUID(dk.PakGuid)] = dk.Key
	}
	return out
}

// NormalizeGUID lower-cases a GUID and strips separators.
func NormalizeGUID(guid string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "{", "", "}", "").Replace(guid))
}

// Mappings describe the property layout of every type and enum in a build.
type Mappings struct {
	Types map[string][]string `json:"types" yaml:"types"`
	Enums map[string][]string `json:"enums" yaml:"enums"`
}

// Empty reports whether the mappings carry no types and no enums.
func (m *Mappings) Empty() bool {
	return m == nil || (len(m.Types) == 0 && len(m.Enums) == 0)
}

// Bundle is everything a source needs before it can read packages.
type Bundle struct {
	Keys     *Keys
	Mappings *Mappings
}
