package toolchain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyPayload is returned when the toolchain printed nothing decodable.
var ErrEmptyPayload = errors.New("empty payload")

// Board is one entry of the installed board catalogue.
type Board struct {
	Name string `json:"name"`
	FQBN string `json:"fqbn"`
}

// Port is a detected serial (or network) port with any boards matched to it.
type Port struct {
	Address       string  `json:"address"`
	Label         string  `json:"label,omitempty"`
	Protocol      string  `json:"protocol,omitempty"`
	ProtocolLabel string  `json:"protocol_label,omitempty"`
	Boards        []Board `json:"boards,omitempty"`
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// under one of keys. Newer arduino-cli releases wrap most listings.
func decodeList(data []byte, keys ...string) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return items, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		for _, key := range keys {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			if isNull(raw) {
				return []json.RawMessage{}, nil
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			return items, nil
		}
		// An object without the expected key is an empty listing
		// (arduino-cli prints {} when nothing matches).
		return []json.RawMessage{}, nil
	default:
		return nil, fmt.Errorf("unexpected payload starting with %q", data[0])
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeCatalog returns the raw catalog entries in toolchain order.
func DecodeCatalog(data []byte) ([]json.RawMessage, error) {
	return decodeList(data, "libraries")
}

// EntryName extracts the name field of a raw catalog entry.
func EntryName(raw json.RawMessage) string {
	var probe struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return strings.TrimSpace(probe.Name)
}

// DecodeInstalled maps installed library names to their versions.
func DecodeInstalled(data []byte) (map[string]string, error) {
	items, err := decodeList(data, "installed_libraries")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, raw := range items {
		var rec struct {
			Library struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"library"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode installed library: %w", err)
		}
		if name := strings.TrimSpace(rec.Library.Name); name != "" {
			out[name] = rec.Library.Version
		}
	}
	return out, nil
}

// DecodeOutdated maps outdated library names to the latest available version.
func DecodeOutdated(data []byte) (map[string]string, error) {
	items, err := decodeList(data, "libraries")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, raw := range items {
		var rec struct {
			Library struct {
				Name string `json:"name"`
			} `json:"library"`
			Release struct {
				Version string `json:"version"`
			} `json:"release"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode outdated library: %w", err)
		}
		if name := strings.TrimSpace(rec.Library.Name); name != "" {
			out[name] = rec.Release.Version
		}
	}
	return out, nil
}

// DecodeBoards returns the board catalogue sorted by name.
func DecodeBoards(data []byte) ([]Board, error) {
	items, err := decodeList(data, "boards")
	if err != nil {
		return nil, err
	}
	boards := make([]Board, 0, len(items))
	for _, raw := range items {
		var b Board
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode board: %w", err)
		}
		if strings.TrimSpace(b.FQBN) == "" {
			continue
		}
		boards = append(boards, b)
	}
	sort.SliceStable(boards, func(i, j int) bool {
		return strings.ToLower(boards[i].Name) < strings.ToLower(boards[j].Name)
	})
	return boards, nil
}

// DecodePorts returns detected ports in toolchain order.
func DecodePorts(data []byte) ([]Port, error) {
	items, err := decodeList(data, "detected_ports")
	if err != nil {
		return nil, err
	}
	ports := make([]Port, 0, len(items))
	for _, raw := range items {
		var rec struct {
			Port struct {
				Address       string `json:"address"`
				Label         string `json:"label"`
				Protocol      string `json:"protocol"`
				ProtocolLabel string `json:"protocol_label"`
			} `json:"port"`
			MatchingBoards []Board `json:"matching_boards"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode port: %w", err)
		}
		if strings.TrimSpace(rec.Port.Address) == "" {
			continue
		}
		ports = append(ports, Port{
			Address:       rec.Port.Address,
			Label:         rec.Port.Label,
			Protocol:      rec.Port.Protocol,
			ProtocolLabel: rec.Port.ProtocolLabel,
			Boards:        rec.MatchingBoards,
		})
	}
	return ports, nil
}

// BoardNames joins the names of boards matched to a port.
func (p Port) BoardNames() string {
	names := make([]string, 0, len(p.Boards))
	for _, b := range p.Boards {
		if b.Name != "" {
			names = append(names, b.Name)
		}
	}
	return strings.Join(names, ", ")
}
