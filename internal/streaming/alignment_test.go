package streaming

import "testing"

func TestAlignFullObject(t *testing.T) {
	const chunkSize = 1024 * 1024
	const fileSize = chunkSize*2 + 500

	a := Align(0, fileSize-1, chunkSize)
	if a.Offset != 0 {
		t.Errorf("offset = %d, want 0", a.Offset)
	}
	if a.HeadTrim != 0 {
		t.Errorf("head trim = %d, want 0", a.HeadTrim)
	}
	if a.PartCount != 3 {
		t.Errorf("part count = %d, want 3", a.PartCount)
	}
}

func TestAlignSingleByteAtStart(t *testing.T) {
	const chunkSize = 1024 * 1024
	a := Align(0, 0, chunkSize)
	if a.PartCount != 1 {
		t.Errorf("part count = %d, want 1", a.PartCount)
	}
	if a.HeadTrim != 0 || a.TailTrim != 1 {
		t.Errorf("head/tail trim = %d/%d, want 0/1", a.HeadTrim, a.TailTrim)
	}
}

func TestAlignSingleByteAtEnd(t *testing.T) {
	const chunkSize = 1024 * 1024
	const fileSize = chunkSize + 10
	a := Align(fileSize-1, fileSize-1, chunkSize)
	if a.Offset != chunkSize {
		t.Errorf("offset = %d, want %d", a.Offset, chunkSize)
	}
	if a.PartCount != 1 {
		t.Errorf("part count = %d, want 1", a.PartCount)
	}
}

func TestAlignStraddlesTwoChunks(t *testing.T) {
	const chunkSize = 1024 * 1024
	from := chunkSize - 100
	to := chunkSize + 100
	a := Align(from, to, chunkSize)

	if a.Offset != 0 {
		t.Errorf("offset = %d, want 0", a.Offset)
	}
	if a.HeadTrim != from {
		t.Errorf("head trim = %d, want %d", a.HeadTrim, from)
	}
	if a.PartCount != 2 {
		t.Errorf("part count = %d, want 2", a.PartCount)
	}
	if a.TailTrim != 101 {
		t.Errorf("tail trim = %d, want 101", a.TailTrim)
	}
}

func TestValidateRangeRejectsBadRanges(t *testing.T) {
	const fileSize = 1000

	cases := []struct {
		name     string
		from, to int64
	}{
		{"end beyond file", 0, fileSize},
		{"negative start", -1, 10},
		{"inverted range", 50, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateRange(tc.from, tc.to, fileSize); err == nil {
				t.Errorf("expected error for range [%d,%d]", tc.from, tc.to)
			}
		})
	}
}

func TestValidateRangeAcceptsFullFile(t *testing.T) {
	const fileSize = 1000
	if err := ValidateRange(0, fileSize-1, fileSize); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBodyLength(t *testing.T) {
	if got := BodyLength(0, 99); got != 100 {
		t.Errorf("BodyLength = %d, want 100", got)
	}
}
