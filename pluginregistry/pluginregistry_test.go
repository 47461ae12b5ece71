package pluginregistry

import "testing"

type fakePlugin struct{ n int }

func TestRegisterLookupGet(t *testing.T) {
	defer Reset()

	Register("fake", &fakePlugin{n: 7})

	p, have := Lookup("fake")
	if !have {
		t.Fatalf("expected to find plugin")
	}
	if p.(*fakePlugin).n != 7 {
		t.Fatalf("unexpected plugin value")
	}

	got, err := Get[*fakePlugin]("fake")
	if err != nil {
		t.Fatal(err)
	}
	if got.n != 7 {
		t.Fatalf("unexpected typed plugin value")
	}
}

func TestGetWrongTypeErrors(t *testing.T) {
	defer Reset()
	Register("fake", &fakePlugin{})
	if _, err := Get[string]("fake"); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestUnregister(t *testing.T) {
	defer Reset()
	Register("fake", &fakePlugin{})
	Unregister("fake")
	if _, have := Lookup("fake"); have {
		t.Fatalf("expected plugin to be gone")
	}
}
