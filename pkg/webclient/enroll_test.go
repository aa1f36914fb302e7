package webclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kixlab/kuiz/pkg/webclient"
)

// blockingFetcher parks JoinClass until released, so a test can hold one
// submission in flight while firing another.
type blockingFetcher struct {
	fakeFetcher
	entered chan struct{}
	release chan struct{}
}

func (b *blockingFetcher) JoinClass(ctx context.Context, code string) (webclient.EnrolledClass, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.fakeFetcher.JoinClass(ctx, code)
}

func TestSubmitRecordsEnrollment(t *testing.T) {
	f := &fakeFetcher{joinClass: webclient.EnrolledClass{CID: "c2", Name: "Databases"}}
	s := webclient.NewSession(nil)
	s.Login(loggedInProfile())
	e := webclient.NewEnrollment(f, s)

	class, err := e.Submit(context.Background(), "DB200")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if class.CID != "c2" {
		t.Fatalf("want joined class c2, got %+v", class)
	}
	if e.State() != webclient.Enrolled {
		t.Fatalf("want Enrolled, got %v", e.State())
	}
	if len(s.Classes) != 2 || s.Classes[1].CID != "c2" {
		t.Fatalf("session should record the membership, got %+v", s.Classes)
	}
}

func TestRejectedCodeLeavesSessionUntouched(t *testing.T) {
	// A zero-CID response is the server's "code not recognized".
	f := &fakeFetcher{}
	s := webclient.NewSession(nil)
	s.Login(loggedInProfile())
	e := webclient.NewEnrollment(f, s)

	if _, err := e.Submit(context.Background(), "NOPE"); !errors.Is(err, webclient.ErrCodeRejected) {
		t.Fatalf("want ErrCodeRejected, got %v", err)
	}
	if e.State() != webclient.Unenrolled {
		t.Fatalf("failed join must return to Unenrolled, got %v", e.State())
	}
	if len(s.Classes) != 1 {
		t.Fatalf("failed join must not touch the session, got %+v", s.Classes)
	}
}

func TestTransportErrorReturnsToUnenrolled(t *testing.T) {
	f := &fakeFetcher{joinErr: errors.New("connection refused")}
	s := webclient.NewSession(nil)
	s.Login(loggedInProfile())
	e := webclient.NewEnrollment(f, s)

	if _, err := e.Submit(context.Background(), "DB200"); err == nil {
		t.Fatal("expected transport error")
	}
	if e.State() != webclient.Unenrolled {
		t.Fatalf("want Unenrolled after error, got %v", e.State())
	}
	// The flow must be usable again.
	f.joinErr = nil
	f.joinClass = webclient.EnrolledClass{CID: "c2", Name: "Databases"}
	if _, err := e.Submit(context.Background(), "DB200"); err != nil {
		t.Fatalf("retry after error: %v", err)
	}
}

func TestDuplicateSubmitRejectedWhileInFlight(t *testing.T) {
	f := &blockingFetcher{
		fakeFetcher: fakeFetcher{joinClass: webclient.EnrolledClass{CID: "c2", Name: "Databases"}},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	s := webclient.NewSession(nil)
	s.Login(loggedInProfile())
	e := webclient.NewEnrollment(f, s)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.Submit(context.Background(), "DB200"); err != nil {
			t.Errorf("first submit: %v", err)
		}
	}()

	<-f.entered // first submit is now inside JoinClass
	if _, err := e.Submit(context.Background(), "DB200"); !errors.Is(err, webclient.ErrSubmitInFlight) {
		t.Fatalf("want ErrSubmitInFlight, got %v", err)
	}
	close(f.release)
	wg.Wait()

	if f.joinCalls != 1 {
		t.Fatalf("code must be sent once, got %d", f.joinCalls)
	}
	if len(s.Classes) != 2 {
		t.Fatalf("exactly one membership should be recorded, got %+v", s.Classes)
	}
}
