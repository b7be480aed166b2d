package helper

import (
	"fmt"
	"hash/fnv"
	"strings"

	"f1telemetryhub/pkg/model"
)

// method to convert a lap time to minutes:seconds.milliseconds
func LapTime(t model.Timing) string {
	if !t.Valid || t.Value <= 0 {
		return "-"
	}
	ms := t.Value.Milliseconds()
	minutes := ms / 60000
	ms -= minutes * 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, ms/1000, ms%1000)
}

// method to convert to seconds and 3 milliseconds
func SectorTime(t model.Timing) string {
	if !t.Valid {
		return "-"
	}
	return fmt.Sprintf("%.3f", t.Seconds())
}

// Delta renders a signed difference, always with its sign unless it is zero.
func Delta(t model.Timing) string {
	if !t.Valid {
		return "-"
	}
	if t.Value == 0 {
		return "0.000"
	}
	return fmt.Sprintf("%+.3f", t.Seconds())
}

// DriverCode builds a three letter code from a full name when the provider
// does not send one: first letter of the name plus two of the surname.
func DriverCode(name string) string {
	if name == "" {
		return ""
	}
	words := strings.Fields(name)
	code := string(words[0][0])
	if len(words) > 1 {
		last := words[len(words)-1]
		if len(last) > 2 {
			code += last[:2]
		} else {
			code += last
		}
	} else if len(words[0]) > 2 {
		code += words[0][1:3]
	}
	return strings.ToUpper(code)
}

// TeamColour normalises a provider hex colour ("3671C6") to "#3671C6".
func TeamColour(hex string) string {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return "#888888"
	}
	return "#" + strings.ToUpper(hex)
}

// convert a string to a short stable id
func ToID(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
