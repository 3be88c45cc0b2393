package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalYAML(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"5", 5 * time.Second, false},
		{"0", 0, false},
		{"0.5", 500 * time.Millisecond, false},
		{"1m30s", 90 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"~", 0, false},
		{"-1", 0, true},
		{"-2s", 0, true},
		{"often", 0, true},
		{"[1, 2]", 0, true},
	}

	for _, tt := range tests {
		var out struct {
			D Duration `yaml:"d"`
		}
		err := yaml.Unmarshal([]byte("d: "+tt.input), &out)
		if (err != nil) != tt.wantErr {
			t.Errorf("decode %q: error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && out.D.Duration != tt.want {
			t.Errorf("decode %q = %v, want %v", tt.input, out.D.Duration, tt.want)
		}
	}
}

func TestDurationUnmarshalTOML(t *testing.T) {
	tests := []struct {
		input   any
		want    time.Duration
		wantErr bool
	}{
		{int64(60), time.Minute, false},
		{1.5, 1500 * time.Millisecond, false},
		{"2m", 2 * time.Minute, false},
		{"", 0, false},
		{int64(-3), 0, true},
		{true, 0, true},
	}

	for _, tt := range tests {
		var d Duration
		err := d.UnmarshalTOML(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalTOML(%v): error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && d.Duration != tt.want {
			t.Errorf("UnmarshalTOML(%v) = %v, want %v", tt.input, d.Duration, tt.want)
		}
	}
}

func TestDurationMarshalText(t *testing.T) {
	b, err := Duration{90 * time.Second}.MarshalText()
	if err != nil || string(b) != "1m30s" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
}
