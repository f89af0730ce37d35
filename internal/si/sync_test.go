package si_test

import (
	"encoding/json"
	"testing"

	"si-go/internal/si"
	"si-go/internal/testutil"
)

func remoteMe() *si.RemoteUser {
	return &si.RemoteUser{
		ID:      "me-1",
		Reports: []si.RemoteTeammate{{ID: "alice-1"}},
		Manager: &si.RemoteTeammate{ID: "boss-1", FirstName: "Alex", Name: "Alex Apricot", IsActive: true},
		Company: &si.Company{BaseURL: "https://acme.small-improvements.com"},
	}
}

func remoteRoster() []si.RemoteTeammate {
	return []si.RemoteTeammate{
		{ID: "alice-1", FirstName: "Alice", Name: "Alice Appleton", IsActive: true},
		{ID: "bob-1", FirstName: "Robert", Name: "Robert Rogers", IsActive: true},
	}
}

func TestTeamSync_Sync(t *testing.T) {
	t.Run("builds a document on a pristine system", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		doc, err := sync.Sync(me, me.Manager, remoteRoster(), false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		if doc.Me.ID != "me-1" || !doc.Me.IsManager {
			t.Errorf("Me = %+v, want id me-1 and manager", doc.Me)
		}
		if doc.BaseURL != "https://acme.small-improvements.com" {
			t.Errorf("BaseURL = %q", doc.BaseURL)
		}
		if doc.Manager == nil || doc.Manager.ID != "boss-1" || doc.Manager.Relationship != si.RelationshipManager {
			t.Errorf("Manager = %+v, want boss-1 as manager", doc.Manager)
		}
		if len(doc.Team) != 2 {
			t.Fatalf("len(Team) = %d, want 2", len(doc.Team))
		}
		alice := doc.Team["Alice Appleton"]
		if alice == nil || alice.ID != "alice-1" || alice.Relationship != si.RelationshipReport {
			t.Errorf("Team[Alice Appleton] = %+v", alice)
		}

		if !store.IsInitialized() {
			t.Error("Sync() did not save the document")
		}
	})

	t.Run("starts fresh from a corrupt cache", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		store.SetRaw([]byte("not json at all"))
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		if _, err := sync.Sync(me, me.Manager, remoteRoster(), false); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		doc, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after Sync() error = %v", err)
		}
		if len(doc.Team) != 2 {
			t.Errorf("len(Team) = %d, want 2", len(doc.Team))
		}
	})

	t.Run("preserves nickname and refreshes names", func(t *testing.T) {
		store := testutil.NewTestStore(t, testutil.ExampleDocument())
		sync := si.NewTeamSync(store, si.NewNopLogger())

		roster := []si.RemoteTeammate{
			{ID: "bob-1", FirstName: "Rob", Name: "Rob Rogers-Smith", IsActive: true},
		}
		me := remoteMe()
		doc, err := sync.Sync(me, me.Manager, roster, false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		bob := doc.Team["Robert Rogers"]
		if bob == nil {
			t.Fatal("cache key changed after rename")
		}
		if bob.Nickname != "Bob" {
			t.Errorf("Nickname = %q, want %q", bob.Nickname, "Bob")
		}
		if bob.Name != "Rob Rogers-Smith" || bob.FirstName != "Rob" {
			t.Errorf("names = %q/%q, want refreshed values", bob.FirstName, bob.Name)
		}
		if _, ok := doc.Team["Rob Rogers-Smith"]; ok {
			t.Error("renamed teammate was inserted under a new key")
		}
	})

	t.Run("never removes cached teammates", func(t *testing.T) {
		store := testutil.NewTestStore(t, testutil.ExampleDocument())
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		doc, err := sync.Sync(me, me.Manager, nil, false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if len(doc.Team) != 3 {
			t.Errorf("len(Team) = %d, want 3", len(doc.Team))
		}
	})

	t.Run("skips inactive teammates", func(t *testing.T) {
		store := testutil.NewTestStore(t, testutil.ExampleDocument())
		sync := si.NewTeamSync(store, si.NewNopLogger())

		roster := []si.RemoteTeammate{
			{ID: "new-1", FirstName: "Nina", Name: "Nina New", IsActive: false},
			{ID: "alice-1", FirstName: "Alicia", Name: "Alicia Appleton", IsActive: false},
		}
		me := remoteMe()
		doc, err := sync.Sync(me, me.Manager, roster, false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		if _, ok := doc.Team["Nina New"]; ok {
			t.Error("inactive teammate was added")
		}
		if got := doc.Team["Alice Appleton"].FirstName; got != "Alice" {
			t.Errorf("inactive teammate was updated: FirstName = %q", got)
		}
	})

	t.Run("keeps unknown keys without overwrite", func(t *testing.T) {
		seed := testutil.ExampleDocument()
		seed.Me.Extra = map[string]json.RawMessage{"some_crazy_key": json.RawMessage(`"some_value"`)}
		seed.Team["Alice Appleton"].Extra = map[string]json.RawMessage{"birthday": json.RawMessage(`"03-14"`)}
		seed.Extra = map[string]json.RawMessage{"notes": json.RawMessage(`["bring cake"]`)}
		store := testutil.NewTestStore(t, seed)
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		if _, err := sync.Sync(me, me.Manager, remoteRoster(), false); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		doc, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if _, ok := doc.Me.Extra["some_crazy_key"]; !ok {
			t.Error("unknown key under me was dropped")
		}
		if _, ok := doc.Team["Alice Appleton"].Extra["birthday"]; !ok {
			t.Error("unknown key on teammate was dropped")
		}
		if _, ok := doc.Extra["notes"]; !ok {
			t.Error("unknown top-level key was dropped")
		}
	})

	t.Run("overwrite discards local data", func(t *testing.T) {
		seed := testutil.ExampleDocument()
		seed.Me.Extra = map[string]json.RawMessage{"some_crazy_key": json.RawMessage(`"some_value"`)}
		store := testutil.NewTestStore(t, seed)
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		doc, err := sync.Sync(me, me.Manager, remoteRoster(), true)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		if _, ok := doc.Me.Extra["some_crazy_key"]; ok {
			t.Error("overwrite kept an unknown key under me")
		}
		if _, ok := doc.Team["Charlie Chaplin"]; ok {
			t.Error("overwrite kept a teammate missing from the roster")
		}
		if doc.Team["Robert Rogers"].Nickname != "" {
			t.Error("overwrite kept a nickname")
		}
	})

	t.Run("manager update keeps nickname", func(t *testing.T) {
		seed := testutil.ExampleDocument()
		seed.Manager.Nickname = "Boss"
		seed.Manager.Extra = map[string]json.RawMessage{"desk": json.RawMessage(`"4B"`)}
		store := testutil.NewTestStore(t, seed)
		sync := si.NewTeamSync(store, si.NewNopLogger())

		me := remoteMe()
		me.Manager.Name = "Alex Apricot-Jones"
		doc, err := sync.Sync(me, me.Manager, nil, false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		if doc.Manager.Name != "Alex Apricot-Jones" {
			t.Errorf("Manager.Name = %q", doc.Manager.Name)
		}
		if doc.Manager.Nickname != "Boss" {
			t.Errorf("Manager.Nickname = %q, want %q", doc.Manager.Nickname, "Boss")
		}
		if got := string(doc.Manager.Extra["desk"]); got != `"4B"` {
			t.Errorf("Manager.Extra[desk] = %s, want \"4B\"", got)
		}
	})

	t.Run("user without reports or company", func(t *testing.T) {
		store := testutil.NewTestStore(t, nil)
		sync := si.NewTeamSync(store, si.NewNopLogger())

		doc, err := sync.Sync(&si.RemoteUser{ID: "me-1"}, nil, nil, false)
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if doc.Me.IsManager {
			t.Error("IsManager = true for a user without reports")
		}
		if doc.BaseURL != "" {
			t.Errorf("BaseURL = %q, want empty", doc.BaseURL)
		}
		if doc.Manager != nil {
			t.Errorf("Manager = %+v, want nil", doc.Manager)
		}
	})

	t.Run("requires the current user", func(t *testing.T) {
		sync := si.NewTeamSync(testutil.NewTestStore(t, nil), si.NewNopLogger())
		if _, err := sync.Sync(nil, nil, nil, false); err == nil {
			t.Error("Sync(nil) expected error")
		}
	})
}

func TestTeamSync_SQLiteStore(t *testing.T) {
	store := testutil.NewTestSQLiteStore(t, "default")
	sync := si.NewTeamSync(store, si.NewNopLogger())

	me := remoteMe()
	if _, err := sync.Sync(me, me.Manager, remoteRoster(), false); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	doc.Team["Alice Appleton"].Nickname = "Ali"
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	doc, err = sync.Sync(me, me.Manager, remoteRoster(), false)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if doc.Team["Alice Appleton"].Nickname != "Ali" {
		t.Errorf("Nickname = %q, want %q", doc.Team["Alice Appleton"].Nickname, "Ali")
	}
}
