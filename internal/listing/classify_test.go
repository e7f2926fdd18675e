package listing

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Line
	}{
		{"year directory", "./2024:", Line{Type: DirectoryHeader, Value: "2024/"}},
		{"nested directory", "./20170801/20170619:", Line{Type: DirectoryHeader, Value: "20170801/20170619/"}},
		{"directory without dot prefix", "2024:", Line{Type: DirectoryHeader, Value: "2024/"}},
		{"directory with trailing slash", "./2024/:", Line{Type: DirectoryHeader, Value: "2024/"}},
		{"root directory", ".:", Line{Type: Other}},
		{"named directory", "./images:", Line{Type: Other}},
		{"indented header", "  ./2024:", Line{Type: Other}},
		{"html award", "20245383.html", Line{Type: HTMLAwardFile, Value: "20245383.html"}},
		{"html award with whitespace", "  20245383.html \n", Line{Type: HTMLAwardFile, Value: "20245383.html"}},
		{"image award", "20245383.jpg", Line{Type: ImageAwardFile, Value: "20245383.jpg"}},
		{"named html page", "index.html", Line{Type: Other}},
		{"thumbnail", "20245383thumb.jpg", Line{Type: Other}},
		{"html backup", "20245383.html.bak", Line{Type: Other}},
		{"empty", "", Line{Type: BlankSeparator}},
		{"whitespace only", " \t\r", Line{Type: BlankSeparator}},
		{"text", "notes.txt", Line{Type: Other}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestLineType_String(t *testing.T) {
	if DirectoryHeader.String() != "directory" || Other.String() != "other" {
		t.Errorf("unexpected names: %s, %s", DirectoryHeader, Other)
	}
}
