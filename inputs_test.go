package directedinputs

import (
	"errors"
	"strings"
	"testing"
)

func staticEnviron(pairs ...string) EnvironFunc {
	return func() []string { return pairs }
}

func TestEnvPrefixFilterAndStrip(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron(
			"MY_APP_DATABASE_URL=postgres://x",
			"OTHER_VAR=ignored",
		)),
		WithEnvPrefix("MY_APP_", true),
	)
	got, err := in.Get("database_url")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "postgres://x" {
		t.Fatalf("expected stripped env key to resolve, got %v", got)
	}
	if in.Has("OTHER_VAR") {
		t.Fatal("expected non-prefixed variable to be invisible")
	}
}

func TestEnvPrefixMatchIsCaseSensitive(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("my_app_key=lower", "MY_APP_KEY=upper")),
		WithEnvPrefix("MY_APP_", true),
	)
	got, err := in.Get("key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "upper" {
		t.Fatalf("expected only the case-matching key, got %v", got)
	}
}

func TestExplicitValuesOverrideEnvironment(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("DOMAIN=from-env")),
		WithValues(map[string]any{"domain": "from-values"}),
	)
	got, err := in.Get("Domain")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "from-values" {
		t.Fatalf("expected explicit value to win, got %v", got)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{"DoMaIn": "example.com"}),
	)
	for _, key := range []string{"DOMAIN", "domain", "Domain"} {
		got, err := in.Get(key)
		if err != nil {
			t.Fatalf("Get(%s) returned error: %v", key, err)
		}
		if got != "example.com" {
			t.Fatalf("Get(%s) = %v, want example.com", key, got)
		}
	}
}

func TestGetAliasesTriedInOrder(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{"legacy_host": "a", "fallback_host": "b"}),
	)
	got, err := in.Get("host", Aliases("legacy_host", "fallback_host"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "a" {
		t.Fatalf("expected first alias hit, got %v", got)
	}
}

func TestGetDefaultAndRequired(t *testing.T) {
	in := New(WithoutEnvironment())
	got, err := in.Get("missing", Default("fallback"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "fallback" {
		t.Fatalf("expected default, got %v", got)
	}

	_, err = in.Get("missing", Required(), Aliases("also_missing"))
	var missing *MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingInputError, got %v", err)
	}
	if len(missing.Keys) != 2 || missing.Keys[0] != "missing" || missing.Keys[1] != "also_missing" {
		t.Fatalf("expected every tried key to be named, got %v", missing.Keys)
	}
}

func TestGetEmptyStringCountsAsMissing(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("TOKEN=")),
	)
	got, err := in.Get("TOKEN", Default("fallback"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "fallback" {
		t.Fatalf("expected empty env value to fall back to default, got %v", got)
	}
	if _, err := in.Get("TOKEN", Required()); err == nil {
		t.Fatal("expected required empty value to fail")
	}
}

func TestGetCoercesByOption(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("DEBUG=true", "PORT=8080", "RATIO=0.5", "TIMEOUT=5s")),
	)
	debug, err := in.Get("debug", AsBool())
	if err != nil || debug != true {
		t.Fatalf("expected true, got %v (%v)", debug, err)
	}
	port, err := in.Get("port", AsInt())
	if err != nil || port != int64(8080) {
		t.Fatalf("expected 8080, got %v (%v)", port, err)
	}
	ratio, err := in.Get("ratio", AsFloat())
	if err != nil || ratio != 0.5 {
		t.Fatalf("expected 0.5, got %v (%v)", ratio, err)
	}
	if _, err := in.Get("debug", AsInt()); err == nil {
		t.Fatal("expected coercion failure for non-numeric input")
	}
}

func TestStdinMergedLazilyAndOnce(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		FromStdin(),
		WithStdin(strings.NewReader(`{"region": "eu-west-1"}`)),
		WithEnviron(staticEnviron()),
	)
	if in.stdinConsumed {
		t.Fatal("stdin must not be read at construction time")
	}
	got, err := in.Get("region")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "eu-west-1" {
		t.Fatalf("expected stdin value, got %v", got)
	}
	if !in.stdinConsumed {
		t.Fatal("expected stdin to be consumed after first lookup")
	}
	// A second lookup must not re-read the stream.
	if _, err := in.Get("region"); err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
}

func TestStdinOverridesEnvironmentButNotExplicit(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("REGION=from-env", "ZONE=from-env")),
		WithValues(map[string]any{"zone": "from-values"}),
		FromStdin(),
		WithStdin(strings.NewReader(`{"region": "from-stdin", "zone": "from-stdin"}`)),
	)
	region, err := in.Get("region")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if region != "from-stdin" {
		t.Fatalf("expected stdin to overwrite environment, got %v", region)
	}
	zone, err := in.Get("zone")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if zone != "from-values" {
		t.Fatalf("expected explicit value to survive stdin, got %v", zone)
	}
}

func TestStdinRejectsNonMappingAndNeverRetries(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithEnviron(staticEnviron()),
		FromStdin(),
		WithStdin(strings.NewReader(`[1, 2, 3]`)),
	)
	_, err := in.Get("anything", Default("x"))
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for non-mapping stdin, got %v", err)
	}
	// The stream is spent; later lookups proceed without it.
	got, err := in.Get("anything", Default("x"))
	if err != nil {
		t.Fatalf("expected no retry after failed stdin read, got %v", err)
	}
	if got != "x" {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestStdinEmptyStreamIsIgnored(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithEnviron(staticEnviron()),
		FromStdin(),
		WithStdin(strings.NewReader("  \n")),
	)
	got, err := in.Get("missing", Default("x"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "x" {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestOverrideStdinDisablesConsumption(t *testing.T) {
	in := New(
		WithEnviron(staticEnviron("OVERRIDE_STDIN=true")),
		FromStdin(),
		WithStdin(strings.NewReader(`{"region": "from-stdin"}`)),
	)
	got, err := in.Get("region", Default("none"))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "none" {
		t.Fatalf("expected stdin to be skipped, got %v", got)
	}
}

func TestGetRejectsDecodeOptions(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"doc": `{"a": 1}`}))
	for _, opt := range []GetOption{FromBase64(), FromJSON(), FromYAML()} {
		_, err := in.Get("doc", opt)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("expected InputError for decode option on Get, got %v", err)
		}
	}
}

func TestDecodeReturnsDefaultUndecoded(t *testing.T) {
	in := New(WithoutEnvironment())
	got, err := in.Decode("missing", Default("not base64!"), FromBase64())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "not base64!" {
		t.Fatalf("expected raw default, got %v", got)
	}
}

func TestDecodePropagatesDecodeError(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{"payload": "{invalid json"}),
	)
	_, err := in.Decode("payload", FromJSON())
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if derr.Key != "payload" {
		t.Fatalf("expected error to name the key, got %q", derr.Key)
	}
}

func TestDecodeRejectsJSONPlusYAML(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"doc": "a: 1"}))
	_, err := in.Decode("doc", FromJSON(), FromYAML())
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestDecodeDefaultIfNil(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"doc": "null"}))
	got, err := in.Decode("doc", FromJSON(), Default("fallback"), DefaultIfNil())
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got != "fallback" {
		t.Fatalf("expected default for null payload, got %v", got)
	}
}

func TestFreezeThawRoundTrip(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{
			"feature_flags": map[string]any{"existing": true},
			"name":          "svc",
		}),
	)
	snapshot := in.Freeze()

	// Mutating the returned snapshot never leaks into live state.
	snapshot["name"] = "mutated"
	snapshot["feature_flags"].(map[string]any)["existing"] = false
	if got, _ := in.Get("name"); got != "svc" {
		t.Fatalf("live state changed through snapshot: %v", got)
	}

	in.Merge(map[string]any{"name": "changed"})
	restored, err := in.Thaw()
	if err != nil {
		t.Fatalf("Thaw returned error: %v", err)
	}
	if restored["name"] != "svc" {
		t.Fatalf("expected thaw to restore snapshot state, got %v", restored["name"])
	}
	if got, _ := in.Get("name"); got != "svc" {
		t.Fatalf("expected live state restored, got %v", got)
	}

	// Thaw is idempotent against the same snapshot.
	in.Merge(map[string]any{"name": "changed-again"})
	restored, err = in.Thaw()
	if err != nil {
		t.Fatalf("second Thaw returned error: %v", err)
	}
	if restored["name"] != "svc" {
		t.Fatalf("expected repeated thaw to yield same state, got %v", restored["name"])
	}
}

func TestThawWithoutFreezeFails(t *testing.T) {
	in := New(WithoutEnvironment())
	_, err := in.Thaw()
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestShiftTogglesFreezeAndThaw(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"name": "svc"}))
	if _, err := in.Shift(); err != nil {
		t.Fatalf("first Shift returned error: %v", err)
	}
	if in.frozen == nil {
		t.Fatal("expected first shift to freeze")
	}
	in.Merge(map[string]any{"name": "other"})
	restored, err := in.Shift()
	if err != nil {
		t.Fatalf("second Shift returned error: %v", err)
	}
	if restored["name"] != "svc" {
		t.Fatalf("expected second shift to thaw, got %v", restored["name"])
	}
}

func TestMergeIsNonDestructiveOnNestedKeys(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{"feature_flags": map[string]any{"existing": true}}),
	)
	in.Merge(map[string]any{"feature_flags": map[string]any{"new": true}})
	got, err := in.Get("feature_flags")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	flags, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if flags["existing"] != true || flags["new"] != true {
		t.Fatalf("expected union of nested keys, got %v", flags)
	}
}

func TestMergeReplacesScalarConflicts(t *testing.T) {
	in := New(
		WithoutEnvironment(),
		WithValues(map[string]any{"retries": 3, "tags": []any{"a"}}),
	)
	in.Merge(map[string]any{"retries": 5, "tags": []any{"b"}})
	if got, _ := in.Get("retries"); got != 5 {
		t.Fatalf("expected payload scalar to win, got %v", got)
	}
	tags, _ := in.Get("tags")
	if len(tags.([]any)) != 1 || tags.([]any)[0] != "b" {
		t.Fatalf("expected payload slice to replace, got %v", tags)
	}
}

func TestValuesReturnsIndependentCopy(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"nested": map[string]any{"a": 1}}))
	snapshot := in.Values()
	snapshot["nested"].(map[string]any)["a"] = 99
	got, _ := in.Get("nested")
	if got.(map[string]any)["a"] != 1 {
		t.Fatalf("expected live state untouched, got %v", got)
	}
}

func TestDumpRendersState(t *testing.T) {
	in := New(WithoutEnvironment(), WithValues(map[string]any{"name": "svc"}))
	dump := in.Dump()
	if !strings.Contains(dump, "svc") {
		t.Fatalf("expected dump to include values, got %s", dump)
	}
}
