package caster

import "testing"

type progress struct {
	Step    int    `json:"step"`
	Message string `json:"message"`
}

func TestJSONChannelCaster(t *testing.T) {
	var c ChannelCaster[progress] = JSONChannelCaster[progress]{}

	b, err := c.To(progress{Step: 2, Message: "laps"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"step":2,"message":"laps"}` {
		t.Errorf("unexpected frame %s", b)
	}

	if _, err := c.From([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}
