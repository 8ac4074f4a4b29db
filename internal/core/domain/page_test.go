package domain

import "testing"

func page(name string) Page {
	return Page{Name: name, Size: 10, MIMEType: "image/png", Kind: PageKindImage}
}

func names(pages []Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Name)
	}
	return out
}

func TestPageSetAddRemove(t *testing.T) {
	set := NewPageSet(PageLimits{})
	if err := set.Add(page("p1"), page("p2")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := set.Remove(0); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got := set.Pages()
	if len(got) != 1 || got[0].Name != "p2" {
		t.Fatalf("expected [p2], got %v", names(got))
	}
	if err := set.Remove(0); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !set.IsEmpty() || set.Pages() != nil {
		t.Fatalf("expected empty sentinel after removing last page")
	}
}

func TestPageSetRemoveOutOfRange(t *testing.T) {
	set := NewPageSet(PageLimits{})
	_ = set.Add(page("p1"))
	if err := set.Remove(3); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPageSetReorder(t *testing.T) {
	set := NewPageSet(PageLimits{})
	_ = set.Add(page("p1"), page("p2"), page("p3"))

	set.Reorder(0, 2)
	if got := names(set.Pages()); got[0] != "p2" || got[1] != "p3" || got[2] != "p1" {
		t.Fatalf("expected [p2 p3 p1], got %v", got)
	}

	set.Reorder(2, 0)
	if got := names(set.Pages()); got[0] != "p1" || got[1] != "p2" || got[2] != "p3" {
		t.Fatalf("expected [p1 p2 p3], got %v", got)
	}

	set.Reorder(-4, 99)
	if got := names(set.Pages()); got[0] != "p2" || got[2] != "p1" {
		t.Fatalf("expected clamped move to end, got %v", got)
	}
}

func TestPageSetDragSequence(t *testing.T) {
	set := NewPageSet(PageLimits{})
	_ = set.Add(page("a"), page("b"), page("c"), page("d"))

	// dragging "a" across positions 1, 2, 3 is three single moves
	set.Reorder(0, 1)
	set.Reorder(1, 2)
	set.Reorder(2, 3)
	if got := names(set.Pages()); got[0] != "b" || got[1] != "c" || got[2] != "d" || got[3] != "a" {
		t.Fatalf("expected [b c d a], got %v", got)
	}
}

func TestPageSetLimitsRejectWithoutMutation(t *testing.T) {
	set := NewPageSet(PageLimits{MaxPages: 2, MaxPageBytes: 100})
	_ = set.Add(page("p1"))

	if err := set.Add(page("p2"), page("p3")); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected too many pages error, got %v", err)
	}
	big := page("big")
	big.Size = 101
	if err := set.Add(big); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected oversized page error, got %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected set unchanged, got %d pages", set.Len())
	}
}

func TestUserMessage(t *testing.T) {
	svc := WrapError(ErrServiceFailure, "analyze", &ServiceError{Operation: "analyze", StatusCode: 400, Message: "No text found"})
	if got := UserMessage(svc, "x"); got != "No text found" {
		t.Fatalf("expected verbatim service message, got %q", got)
	}
	transport := WrapError(ErrTransport, "analyze", errTest("dial tcp: refused"))
	if got := UserMessage(transport, "x"); got != GenericTransportMessage {
		t.Fatalf("expected generic transport message, got %q", got)
	}
	input := WrapError(ErrInvalidInput, "submit", errTest("no pages selected"))
	if got := UserMessage(input, "x"); got != "no pages selected" {
		t.Fatalf("expected root message, got %q", got)
	}
	unsupported := WrapError(ErrUnsupportedContent, "load page", errTest("notes.txt: unsupported file type text/plain"))
	if got := UserMessage(unsupported, "x"); got != "notes.txt: unsupported file type text/plain" {
		t.Fatalf("expected unsupported type message, got %q", got)
	}
	clip := WrapError(ErrClipboard, "copy message", errTest("xclip: not found"))
	if got := UserMessage(clip, "x"); got != ClipboardFailureMessage {
		t.Fatalf("expected clipboard message, got %q", got)
	}
	if got := UserMessage(errTest("boom"), ""); got != GenericFailureMessage {
		t.Fatalf("expected generic failure, got %q", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
