package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestPlanner(t *testing.T, target string, deleteDuplicates bool) *Planner {
	t.Helper()
	r := newTestResolver(testConfig())
	t.Cleanup(r.Close)
	return &Planner{
		Resolver:         r,
		TargetRoot:       target,
		DeleteDuplicates: deleteDuplicates,
		Log:              testLogger(),
	}
}

func mediaFileAt(t *testing.T, path string, kind Kind) MediaFile {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return MediaFile{Name: filepath.Base(path), Path: path, Size: info.Size(), Kind: kind}
}

func TestPlan_DateFolderFromFilename(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "input")
	target := filepath.Join(tempDir, "sorted")
	os.MkdirAll(src, 0755)

	path := writeTestFile(t, src, "20220101_120000.mp4", []byte("video data"))
	p := newTestPlanner(t, target, false)

	plan, err := p.Plan(context.Background(), mediaFileAt(t, path, KindVideo))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	expected := filepath.Join(target, "2022-01-01", "20220101_120000.mp4")
	if plan.Dest != expected {
		t.Errorf("expected dest %s, got %s", expected, plan.Dest)
	}
	if plan.DateFolder != "2022-01-01" {
		t.Errorf("expected date folder 2022-01-01, got %s", plan.DateFolder)
	}
	if _, err := os.Stat(filepath.Join(target, "2022-01-01")); err != nil {
		t.Errorf("date folder not created: %v", err)
	}
}

func TestPlan_SourceVanished(t *testing.T) {
	tempDir := t.TempDir()
	p := newTestPlanner(t, filepath.Join(tempDir, "sorted"), false)

	f := MediaFile{Name: "gone.jpg", Path: filepath.Join(tempDir, "gone.jpg"), Kind: KindImage}
	_, err := p.Plan(context.Background(), f)
	if !errors.Is(err, ErrSourceVanished) {
		t.Errorf("expected ErrSourceVanished, got %v", err)
	}
}

func TestPlan_DuplicateKeptInPlace(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "input")
	target := filepath.Join(tempDir, "sorted")
	os.MkdirAll(src, 0755)
	os.MkdirAll(filepath.Join(target, "2020-01-02"), 0755)

	content := []byte("identical bytes")
	path := writeTestFile(t, src, "pic_2020-01-02.jpg", content)
	occupant := writeTestFile(t, filepath.Join(target, "2020-01-02"), "pic_2020-01-02.jpg", content)

	p := newTestPlanner(t, target, false)
	_, err := p.Plan(context.Background(), mediaFileAt(t, path, KindImage))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Keep policy: the source must still be there, the occupant untouched.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source deleted under keep policy: %v", err)
	}
	got, _ := os.ReadFile(occupant)
	if string(got) != string(content) {
		t.Errorf("occupant content changed")
	}
}

func TestPlan_DuplicateDeletedUnderPolicy(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "input")
	target := filepath.Join(tempDir, "sorted")
	os.MkdirAll(src, 0755)
	os.MkdirAll(filepath.Join(target, "2020-01-02"), 0755)

	content := []byte("identical bytes")
	path := writeTestFile(t, src, "pic_2020-01-02.jpg", content)
	writeTestFile(t, filepath.Join(target, "2020-01-02"), "pic_2020-01-02.jpg", content)

	p := newTestPlanner(t, target, true)
	_, err := p.Plan(context.Background(), mediaFileAt(t, path, KindImage))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source should be deleted under delete policy, stat: %v", err)
	}
}

func TestPlan_CollisionDisambiguation(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "input")
	target := filepath.Join(tempDir, "sorted")
	dateDir := filepath.Join(target, "2020-01-02")
	os.MkdirAll(src, 0755)
	os.MkdirAll(dateDir, 0755)

	path := writeTestFile(t, src, "pic_2020-01-02.jpg", []byte("new content"))
	writeTestFile(t, dateDir, "pic_2020-01-02.jpg", []byte("old content"))

	p := newTestPlanner(t, target, false)
	plan, err := p.Plan(context.Background(), mediaFileAt(t, path, KindImage))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	expected := filepath.Join(dateDir, "pic_2020-01-02_1.jpg")
	if plan.Dest != expected {
		t.Errorf("expected disambiguated dest %s, got %s", expected, plan.Dest)
	}

	// With _1 also occupied the counter advances.
	writeTestFile(t, dateDir, "pic_2020-01-02_1.jpg", []byte("other content"))
	plan, err = p.Plan(context.Background(), mediaFileAt(t, path, KindImage))
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if want := filepath.Join(dateDir, "pic_2020-01-02_2.jpg"); plan.Dest != want {
		t.Errorf("expected %s, got %s", want, plan.Dest)
	}
}

func TestPlan_AlreadyOrganized(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "sorted")
	dateDir := filepath.Join(target, "2020-01-02")
	os.MkdirAll(dateDir, 0755)

	// Organizing the target in place: the file already sits at its
	// destination and must be skipped, never deleted.
	path := writeTestFile(t, dateDir, "pic_2020-01-02.jpg", []byte("content"))

	p := newTestPlanner(t, target, true) // delete policy on purpose
	_, err := p.Plan(context.Background(), mediaFileAt(t, path, KindImage))
	if !errors.Is(err, ErrAlreadyOrganized) {
		t.Fatalf("expected ErrAlreadyOrganized, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("already-organized file was removed: %v", err)
	}
}

func TestUniqueDestPath_RandomSuffixAfterCounterStorm(t *testing.T) {
	tempDir := t.TempDir()

	writeTestFile(t, tempDir, "f.jpg", []byte("0"))
	for i := 1; i <= maxCounterAttempts; i++ {
		writeTestFile(t, tempDir, fmt.Sprintf("f_%d.jpg", i), []byte("x"))
	}

	path, err := uniqueDestPath(tempDir, "f.jpg")
	if err != nil {
		t.Fatalf("uniqueDestPath failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("minted path is occupied: %s", path)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "f_") || !strings.HasSuffix(base, ".jpg") {
		t.Errorf("unexpected candidate shape: %s", base)
	}
	for i := 1; i <= maxCounterAttempts; i++ {
		if base == fmt.Sprintf("f_%d.jpg", i) {
			t.Errorf("expected a random suffix after the counter attempts, got %s", base)
		}
	}
}
