package keydb

import (
	"encoding/hex"
	"strings"
	"testing"
)

func mustKey(t *testing.T, s string) Key {
	t.Helper()

	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 16 {
		t.Fatalf("bad test key %q", s)
	}
	var key Key
	copy(key[:], raw)
	return key
}

func TestScrambler(t *testing.T) {
	cases := []struct {
		keyX, keyY, want string
	}{
		{
			"000102030405060708090A0B0C0D0E0F",
			"101112131415161718191A1B1C1D1E1F",
			"09C4BDCE56980781E4E4FF89099D4162",
		},
		{
			"00000000000000000000000000000000",
			"00000000000000000000000000000000",
			"EE2EA93B450FFCF4D562FF02040122C8",
		},
		{
			"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF",
			"00112233445566778899AABBCCDDEEFF",
			"90483A43C50FF463BBC0D44EC83CD5F3",
		},
	}

	for _, c := range cases {
		got := scramble(mustKey(t, c.keyX), mustKey(t, c.keyY))
		if got != mustKey(t, c.want) {
			t.Errorf("scramble(%s, %s) = %X, want %s", c.keyX, c.keyY, got, c.want)
		}
	}
}

func TestNormalKeyAvailability(t *testing.T) {
	keyX := mustKey(t, "000102030405060708090A0B0C0D0E0F")
	keyY := mustKey(t, "101112131415161718191A1B1C1D1E1F")

	db := New()
	if db.IsNormalKeyAvailable(NCCHSecure1) {
		t.Error("empty registry reports an available key")
	}

	db.SetKeyY(NCCHSecure1, keyY)
	if db.IsNormalKeyAvailable(NCCHSecure1) {
		t.Error("KeyY alone must not make the normal key available")
	}

	db.SetKeyX(NCCHSecure1, keyX)
	key, ok := db.NormalKey(NCCHSecure1)
	if !ok {
		t.Fatal("normal key unavailable after both halves were set")
	}
	if want := scramble(keyX, keyY); key != want {
		t.Errorf("NormalKey = %X, want %X", key, want)
	}

	// Slots are independent.
	if db.IsNormalKeyAvailable(NCCHSecure2) {
		t.Error("unrelated slot reports an available key")
	}

	override := mustKey(t, "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")
	db.SetNormalKey(NCCHSecure1, override)
	if key, _ := db.NormalKey(NCCHSecure1); key != override {
		t.Error("SetNormalKey did not override the derived key")
	}
}

func TestLoadYAML(t *testing.T) {
	doc := `
slots:
  "0x2C":
    keyX: 000102030405060708090A0B0C0D0E0F
    keyY: 101112131415161718191A1B1C1D1E1F
  "0x25":
    normal: FEDCBA98765432100123456789ABCDEF
`
	db := New()
	if err := db.Load(strings.NewReader(doc)); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	key, ok := db.NormalKey(NCCHSecure1)
	if !ok {
		t.Fatal("slot 0x2C has no normal key")
	}
	if want := mustKey(t, "09C4BDCE56980781E4E4FF89099D4162"); key != want {
		t.Errorf("slot 0x2C normal key = %X, want %X", key, want)
	}

	key, ok = db.NormalKey(NCCHSecure2)
	if !ok || key != mustKey(t, "FEDCBA98765432100123456789ABCDEF") {
		t.Errorf("slot 0x25 normal key = %X, %v", key, ok)
	}
}

func TestLoadYAMLRejectsBadMaterial(t *testing.T) {
	cases := []string{
		"slots:\n  \"0x2C\":\n    keyX: nothex\n",
		"slots:\n  \"0x2C\":\n    keyX: 0011223344556677\n", // 8 bytes
		"slots:\n  \"0xZZ\":\n    keyX: 000102030405060708090A0B0C0D0E0F\n",
	}

	for _, doc := range cases {
		if err := New().Load(strings.NewReader(doc)); err == nil {
			t.Errorf("Load accepted invalid document %q", doc)
		}
	}
}
