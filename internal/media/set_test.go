package media

import (
	"bytes"
	"io"
	"testing"

	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

func pngCandidate(name string, size int) Candidate {
	return Candidate{FileName: name, MimeType: "image/png", Data: bytes.Repeat([]byte{0x1}, size)}
}

func TestAddAcceptsAllowedKinds(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	cases := []struct {
		mime string
		kind enums.MediaKind
	}{
		{"image/png", enums.MediaKindImage},
		{"image/jpeg", enums.MediaKindImage},
		{"video/mp4", enums.MediaKindVideo},
	}
	for _, tc := range cases {
		attachment, err := set.Add(Candidate{FileName: "f", MimeType: tc.mime, Data: []byte("data")})
		if err != nil {
			t.Fatalf("Add(%s): %v", tc.mime, err)
		}
		if attachment.Kind != tc.kind {
			t.Fatalf("Add(%s): expected kind %s got %s", tc.mime, tc.kind, attachment.Kind)
		}
	}
	if set.Len() != 3 {
		t.Fatalf("unexpected set length %d", set.Len())
	}
}

func TestAddRejectsUnsupportedKindsAndLeavesSetUnchanged(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	for _, mimeType := range []string{"image/gif", "video/webm", "application/pdf", "text/plain", "", "not a mime"} {
		_, err := set.Add(Candidate{FileName: "f", MimeType: mimeType, Data: []byte("data")})
		if !pkgerrors.HasCode(err, pkgerrors.CodeUnsupportedMedia) {
			t.Fatalf("Add(%q): expected UNSUPPORTED_MEDIA_TYPE got %v", mimeType, err)
		}
		if set.Len() != 0 {
			t.Fatalf("Add(%q): set length changed to %d", mimeType, set.Len())
		}
	}
}

func TestAddHonorsMimeParameters(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	attachment, err := set.Add(Candidate{FileName: "f", MimeType: "IMAGE/PNG; charset=binary", Data: []byte("data")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if attachment.MimeType != "image/png" {
		t.Fatalf("expected normalized mime, got %q", attachment.MimeType)
	}
}

func TestAddEnforcesConfigurableSizeBound(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{MaxBytes: 10})
	if _, err := set.Add(pngCandidate("small.png", 10)); err != nil {
		t.Fatalf("Add at the bound: %v", err)
	}
	_, err := set.Add(pngCandidate("big.png", 11))
	if !pkgerrors.HasCode(err, pkgerrors.CodeMediaTooLarge) {
		t.Fatalf("expected MEDIA_TOO_LARGE got %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("oversized add must not grow the set, length %d", set.Len())
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	names := []string{"a.png", "b.png", "c.png"}
	for _, name := range names {
		if _, err := set.Add(pngCandidate(name, 4)); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	for i, attachment := range set.List() {
		if attachment.FileName != names[i] {
			t.Fatalf("position %d: expected %s got %s", i, names[i], attachment.FileName)
		}
	}
}

func TestRemoveReleasesPreviewExactlyOnce(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	attachment, err := set.Add(pngCandidate("a.png", 4))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	handle := attachment.Preview()
	if _, err := handle.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}

	if err := set.Remove(attachment.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !handle.Released() {
		t.Fatal("remove must release the preview handle")
	}
	if _, err := handle.Token(); err == nil {
		t.Fatal("released handle must refuse to yield a token")
	}
	if err := handle.Release(); err == nil {
		t.Fatal("double release must be reported")
	}
	if err := set.Remove(attachment.ID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("second remove: expected NOT_FOUND got %v", err)
	}
}

func TestTeardownReleasesAllPreviewsAndClosesSet(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	handles := []*PreviewHandle{}
	for i := 0; i < 3; i++ {
		attachment, err := set.Add(pngCandidate("f.png", 4))
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		handles = append(handles, attachment.Preview())
	}

	// One attachment never had a preview created; teardown must not mind.
	if _, err := set.Add(pngCandidate("no-preview.png", 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := set.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	for i, handle := range handles {
		if !handle.Released() {
			t.Fatalf("handle %d leaked", i)
		}
	}
	if set.Len() != 0 {
		t.Fatalf("set not emptied, length %d", set.Len())
	}

	// Idempotent: a second teardown must not double-release.
	if err := set.Teardown(); err != nil {
		t.Fatalf("second Teardown: %v", err)
	}

	if _, err := set.Add(pngCandidate("late.png", 4)); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT after teardown, got %v", err)
	}
}

func TestAttachmentOpenReadsBytes(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{})
	attachment, err := set.Add(Candidate{FileName: "clip.mp4", MimeType: "video/mp4", Data: []byte("frames")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	data, err := io.ReadAll(attachment.Open())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "frames" {
		t.Fatalf("unexpected bytes %q", data)
	}
	if attachment.Size != int64(len("frames")) {
		t.Fatalf("unexpected size %d", attachment.Size)
	}
}

func TestAddEnforcesMaxAttachments(t *testing.T) {
	t.Parallel()

	set := NewSet(Options{MaxAttachments: 1})
	if _, err := set.Add(pngCandidate("a.png", 4)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := set.Add(pngCandidate("b.png", 4)); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR got %v", err)
	}
}
