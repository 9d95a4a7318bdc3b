package domdrift

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const farePage = `<html><body>
<header><nav><a href="/">Home</a></nav></header>
<main>
  <ul class="css-list">
    <li><div><h6>UberX</h6><h6>EGP 115.56</h6></div></li>
    <li><div><h6>Comfort</h6><h6>EGP 160.20</h6></div></li>
  </ul>
  <div><p>Base fare</p><p>EGP 9.00</p></div>
</main>
<footer><p>help</p></footer>
</body></html>`

func TestFingerprintIdenticalPages(t *testing.T) {
	a := Fingerprint(farePage)
	b := Fingerprint(farePage)

	if a != b {
		t.Errorf("identical pages fingerprinted differently: %x vs %x", a, b)
	}
	if a == 0 {
		t.Error("fingerprint of a real page should not be zero")
	}
}

func TestFingerprintIgnoresTextAndAttributes(t *testing.T) {
	// Same element structure, different prices and different generated
	// class names. This is what a fare page looks like run to run.
	relabeled := strings.ReplaceAll(farePage, "EGP 115.56", "EGP 120.09")
	relabeled = strings.ReplaceAll(relabeled, "css-list", "css-x9k2q")

	if got, want := Fingerprint(relabeled), Fingerprint(farePage); got != want {
		t.Errorf("text/attribute churn changed the fingerprint: %x vs %x", got, want)
	}
}

func TestFingerprintSimilarStructures(t *testing.T) {
	// One extra ride row keeps most shingles intact, so fewer than half
	// the bits move. The fixture is far smaller than a real page, which
	// makes per-bit votes noisier, hence the loose bound here.
	extra := strings.Replace(farePage,
		"</ul>",
		"<li><div><h6>XL</h6><h6>EGP 210.00</h6></div></li></ul>", 1)

	d := Distance(Fingerprint(farePage), Fingerprint(extra))
	if d >= 32 {
		t.Errorf("one extra row drifted %d bits, expected fewer than half", d)
	}
}

func TestFingerprintRebuiltStructure(t *testing.T) {
	rebuilt := `<html><body>
<table><tr><td>UberX</td><td>EGP 115.56</td></tr>
<tr><td>Comfort</td><td>EGP 160.20</td></tr></table>
<form><input type="text"><button>Go</button></form>
<section><article><span>Base fare</span></article></section>
</body></html>`

	d := Distance(Fingerprint(farePage), Fingerprint(rebuilt))
	if d <= stableMaxDistance {
		t.Errorf("a rebuilt page drifted only %d bits", d)
	}
}

func TestFingerprintEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
	}{
		{"empty", "", true},
		{"whitespace", "   \n\t  ", true},
		{"plain text", "no markup at all", true},
		{"single tag", "<p>hello</p>", false},
		{"two tags", "<div><p>hi</p></div>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.input)
			if tt.wantZero && got != 0 {
				t.Errorf("Fingerprint(%q) = %x, want 0", tt.input, got)
			}
			if !tt.wantZero && got == 0 {
				t.Errorf("Fingerprint(%q) = 0, want non-zero", tt.input)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"equal", 0xdeadbeef, 0xdeadbeef, 0},
		{"one bit", 0b1000, 0b0000, 1},
		{"four bits", 0b1111, 0b0000, 4},
		{"all bits", 0, ^uint64(0), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVerdict(t *testing.T) {
	base := uint64(0xffff_ffff_ffff_ffff)

	tests := []struct {
		name     string
		baseline uint64
		current  uint64
		want     string
	}{
		{"no baseline", 0, base, VerdictNoSignal},
		{"identical", base, base, VerdictStable},
		{"within stable band", base, base ^ 0x3ff, VerdictStable},
		{"shifted", base, base ^ 0xfffff, VerdictShifted},
		{"rebuilt", base, base ^ 0xffff_ffff_f, VerdictRebuilt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verdict(tt.baseline, tt.current); got != tt.want {
				t.Errorf("Verdict(%x, %x) = %q, want %q", tt.baseline, tt.current, got, tt.want)
			}
		})
	}
}

func TestTagSequence(t *testing.T) {
	got := tagSequence(`<div><p>one</p><br/><span>two</span></div>`)
	want := []string{"div", "p", "br", "span"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("tagSequence = %v, want %v", got, want)
	}
}

func TestShingles(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		n      int
		want   []string
	}{
		{"too few", []string{"a", "b"}, 3, nil},
		{"exact", []string{"a", "b", "c"}, 3, []string{"a_b_c"}},
		{"overlapping", []string{"a", "b", "c", "d"}, 3, []string{"a_b_c", "b_c_d"}},
		{"pairs", []string{"a", "b", "c"}, 2, []string{"a_b", "b_c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shingles(tt.tokens, tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("shingles(%v, %d) = %v, want %v", tt.tokens, tt.n, got, tt.want)
			}
		})
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drift", "dom.baseline")
	b := NewBaseline(path)

	if _, ok := b.Load(); ok {
		t.Fatal("Load reported a baseline before anything was recorded")
	}

	if err := b.Record(0xcafe_f00d); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, ok := b.Load()
	if !ok {
		t.Fatal("Load failed after Record")
	}
	if got != 0xcafe_f00d {
		t.Errorf("Load = %x, want cafef00d", got)
	}

	// A later Record replaces, not appends.
	if err := b.Record(0xbeef); err != nil {
		t.Fatalf("second Record: %v", err)
	}
	got, ok = b.Load()
	if !ok || got != 0xbeef {
		t.Errorf("Load after overwrite = %x (ok=%v), want beef", got, ok)
	}
}

func TestBaselineCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dom.baseline")
	if err := os.WriteFile(path, []byte("not hex at all\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := NewBaseline(path).Load(); ok {
		t.Error("Load accepted a corrupt baseline file")
	}
}
