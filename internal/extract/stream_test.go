package extract

import (
	"context"
	"testing"

	"github.com/mcdonaldj/gunzip/internal/model"
)

func TestExtractStreamsProgress(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/project.zip", file("file1.txt", 10), file("file2.txt", 20))

	run := f.svc.Extract(context.Background(), "/test/project.zip", Options{})
	var events []model.Progress
	for p := range run.Progress() {
		events = append(events, p)
	}

	res, err := run.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if res.FinalPath != "/test/project" {
		t.Errorf("FinalPath = %q", res.FinalPath)
	}
	if len(events) == 0 || events[0].Stage != model.StageStarting {
		t.Fatalf("first event should be starting: %+v", events)
	}
	if last := events[len(events)-1]; last.Stage != model.StageCompleted {
		t.Errorf("last event = %v, expected completed", last.Stage)
	}
}

func TestWaitWithoutReadingProgress(t *testing.T) {
	f := newFixture(t)
	var entries []model.ArchiveEntry
	for i := 0; i < progressBuffer*2; i++ {
		entries = append(entries, file("dir/file"+string(rune('a'+i%26))+string(rune('a'+i/26)), 1))
	}
	f.addArchive("/test/many.zip", entries...)

	res, err := f.svc.Extract(context.Background(), "/test/many.zip", Options{}).Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if res.FinalPath != "/test/dir" {
		t.Errorf("FinalPath = %q, expected /test/dir", res.FinalPath)
	}
}

func TestExtractFailureEndsStream(t *testing.T) {
	f := newFixture(t)

	run := f.svc.Extract(context.Background(), "/test/missing.zip", Options{})
	var stages []model.Stage
	for p := range run.Progress() {
		stages = append(stages, p.Stage)
	}
	if _, err := run.Wait(); model.KindOf(err) != model.KindFileNotFound {
		t.Errorf("expected file not found, got %v", err)
	}
	want := []model.Stage{model.StageStarting, model.StageFailed}
	if !equalStages(stages, want) {
		t.Errorf("stages = %v, expected %v", stages, want)
	}
}

func TestEachExtractHasOwnStream(t *testing.T) {
	f := newFixture(t)
	f.addArchive("/test/a.zip", file("a.txt", 1))

	first := f.svc.Extract(context.Background(), "/test/a.zip", Options{})
	if _, err := first.Wait(); err != nil {
		t.Fatal(err)
	}
	second := f.svc.Extract(context.Background(), "/test/a.zip", Options{})
	if first.Progress() == second.Progress() {
		t.Error("runs must not share a progress channel")
	}
	if _, err := second.Wait(); err != nil {
		t.Fatal(err)
	}
}
