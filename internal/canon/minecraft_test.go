package canon

import "testing"

func TestMinecraft_RawUUIDRoundTrip(t *testing.T) {
	raw := "ef6134805b6244e4a4467fbe85d65513"
	kind, got, err := Minecraft(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != MinecraftUUID {
		t.Fatalf("kind = %v, want MinecraftUUID", kind)
	}
	if got != raw {
		t.Fatalf("got %q, want %q", got, raw)
	}
	want := "ef613480-5b62-44e4-a446-7fbe85d65513"
	if formatted := FormatUUID(got); formatted != want {
		t.Fatalf("FormatUUID(%q) = %q, want %q", raw, formatted, want)
	}
	if StripDashes(want) != raw {
		t.Fatalf("StripDashes(%q) = %q, want %q", want, StripDashes(want), raw)
	}
}

func TestMinecraft_DashedUUID(t *testing.T) {
	dashed := "ef613480-5b62-44e4-a446-7fbe85d65513"
	kind, got, err := Minecraft(dashed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != MinecraftUUID {
		t.Fatalf("kind = %v, want MinecraftUUID", kind)
	}
	if got != "ef6134805b6244e4a4467fbe85d65513" {
		t.Fatalf("got %q", got)
	}
}

func TestMinecraft_Username(t *testing.T) {
	kind, got, err := Minecraft("CherryJimbo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kind != MinecraftUsername {
		t.Fatalf("kind = %v, want MinecraftUsername", kind)
	}
	if got != "CherryJimbo" {
		t.Fatalf("got %q", got)
	}
}

func TestMinecraft_InvalidUsername(t *testing.T) {
	_, _, err := Minecraft("cherryjimbo@example.com")
	if err == nil {
		t.Fatal("expected error for invalid username")
	}
}
