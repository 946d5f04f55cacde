package rom

import (
	"os"
	"path/filepath"
	"testing"
)

// buildROM returns a minimal cartridge image of size romBytes with the given
// title and cart/ROM/RAM-size codes, and a correct header checksum.
func buildROM(t *testing.T, romBytes int, title string, cartType, romSizeCode, ramSizeCode byte) []byte {
	t.Helper()
	data := make([]byte, romBytes)
	copy(data[offTitle:offTitle+16], title)
	data[offCartType] = cartType
	data[offROMSize] = romSizeCode
	data[offRAMSize] = ramSizeCode

	var sum byte
	for i := offTitle; i < offHeaderChecksum; i++ {
		sum = sum - data[i] - 1
	}
	data[offHeaderChecksum] = sum
	return data
}

func writeROM(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gb")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadParsesValidHeader(t *testing.T) {
	data := buildROM(t, 0x8000, "TETRIS", byte(TypeROMOnly), 0x00, 0x00)
	cart, err := Load(writeROM(t, data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cart.Header.Title != "TETRIS" {
		t.Fatalf("Title = %q, want TETRIS", cart.Header.Title)
	}
	if !cart.Header.Valid {
		t.Fatal("expected a matching header checksum")
	}
	if cart.Header.ROMBanks != 2 {
		t.Fatalf("ROMBanks = %d, want 2", cart.Header.ROMBanks)
	}
}

func TestLoadDetectsBadChecksum(t *testing.T) {
	data := buildROM(t, 0x8000, "BAD", byte(TypeROMOnly), 0x00, 0x00)
	data[offHeaderChecksum] ^= 0xFF // corrupt it after computing
	cart, err := Load(writeROM(t, data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cart.Header.Valid {
		t.Fatal("expected a mismatched header checksum to be reported invalid")
	}
}

func TestLoadRejectsShortFile(t *testing.T) {
	path := writeROM(t, make([]byte, 0x10))
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a file shorter than the header")
	}
}

func TestMBC1BankSwitching(t *testing.T) {
	romBanks := 4
	data := buildROM(t, romBanks*0x4000, "MBC1", byte(TypeMBC1), 0x01, 0x00)
	// Stamp each bank's first byte with its own bank index for identification.
	for b := 0; b < romBanks; b++ {
		data[b*0x4000] = byte(b)
	}
	cart, err := Load(writeROM(t, data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cart.ReadROM(0x0000); got != 0 {
		t.Fatalf("bank 0 byte = %d, want 0", got)
	}
	if got := cart.ReadROM(0x4000); got != 1 {
		t.Fatalf("default switched-in bank byte = %d, want 1 (bank 1)", got)
	}

	cart.WriteROM(0x2000, 0x03) // select bank 3
	if got := cart.ReadROM(0x4000); got != 3 {
		t.Fatalf("after bank select, byte = %d, want 3", got)
	}

	cart.WriteROM(0x2000, 0x00) // bank 0 aliases to bank 1 on MBC1
	if got := cart.ReadROM(0x4000); got != 1 {
		t.Fatalf("bank-select 0 should alias to bank 1, got %d", got)
	}
}

func TestMBC1RAMGatedByEnable(t *testing.T) {
	data := buildROM(t, 0x8000, "RAM", byte(TypeMBC1RAM), 0x00, 0x02) // 8KB RAM
	cart, err := Load(writeROM(t, data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cart.WriteRAM(0x0000, 0x42) // RAM disabled: write discarded
	if got := cart.ReadRAM(0x0000); got != 0xFF {
		t.Fatalf("disabled RAM read = %02X, want FF", got)
	}

	cart.WriteROM(0x0000, 0x0A) // enable RAM
	cart.WriteRAM(0x0000, 0x42)
	if got := cart.ReadRAM(0x0000); got != 0x42 {
		t.Fatalf("enabled RAM read = %02X, want 42", got)
	}
}
