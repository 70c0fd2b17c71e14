package settings

// #region imports
import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
)

// #endregion

// #region settings

// Settings is the user configuration consumed by the disposition policy.
// Mutated only through explicit user actions and persisted after every
// mutation.
type Settings struct {
	AutoReplyMessage string   `json:"auto_reply_message"`
	VIPNumbers       []string `json:"vip_numbers"`
	AutoDecline      bool     `json:"auto_decline"`
	VoiceConfirm     bool     `json:"voice_confirm"`
}

// DefaultAutoReply is the reply text shipped by the original app.
const DefaultAutoReply = "I'm currently driving and will call you back when it's safe. If this is urgent, please call again."

// Default returns the out-of-box configuration.
func Default() Settings {
	return Settings{
		AutoReplyMessage: DefaultAutoReply,
		VIPNumbers:       []string{},
	}
}

// #endregion

// #region vip

// IsVIP reports whether the caller matches any VIP entry by suffix
// containment. Unknown is never a VIP.
func (s Settings) IsVIP(caller callerid.CallerID) bool {
	if caller.IsUnknown() {
		return false
	}
	for _, v := range s.VIPNumbers {
		if callerid.Match(callerid.Normalize(v), caller) {
			return true
		}
	}
	return false
}

// AddVIP normalizes and appends a number. Returns false for an unparseable
// number or a duplicate of an existing entry.
func (s *Settings) AddVIP(raw string) bool {
	n := callerid.Normalize(raw)
	if n.IsUnknown() || s.IsVIP(n) {
		return false
	}
	s.VIPNumbers = append(s.VIPNumbers, string(n))
	return true
}

// RemoveVIP deletes every entry matching the number. Returns whether
// anything was removed.
func (s *Settings) RemoveVIP(raw string) bool {
	n := callerid.Normalize(raw)
	kept := s.VIPNumbers[:0]
	removed := false
	for _, v := range s.VIPNumbers {
		if callerid.Match(callerid.Normalize(v), n) {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	s.VIPNumbers = kept
	return removed
}

// #endregion

// #region schema

// blobSchema validates the persisted settings blob before it is trusted.
const blobSchema = `{
	"type": "object",
	"required": ["auto_reply_message", "vip_numbers", "auto_decline", "voice_confirm"],
	"properties": {
		"auto_reply_message": {"type": "string", "minLength": 1},
		"vip_numbers": {"type": "array", "items": {"type": "string"}},
		"auto_decline": {"type": "boolean"},
		"voice_confirm": {"type": "boolean"}
	}
}`

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(blobSchema))
	if err != nil {
		return nil, fmt.Errorf("compile settings schema: %w", err)
	}
	return schema, nil
}

// #endregion

// #region load

// Marshal serializes settings for the persistence store.
func Marshal(s Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

// Load parses and validates a persisted blob. A malformed or
// schema-invalid blob is a configuration error, not a fatal one: Load
// returns defaults along with the error so startup always succeeds.
func Load(data []byte) (Settings, error) {
	schema, err := compileSchema()
	if err != nil {
		return Default(), err
	}
	if result := schema.ValidateJSON(data); !result.IsValid() {
		return Default(), fmt.Errorf("settings blob failed validation: %v", result.Errors)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("unmarshal settings: %w", err)
	}
	if s.VIPNumbers == nil {
		s.VIPNumbers = []string{}
	}
	return s, nil
}

// #endregion
