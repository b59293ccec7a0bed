package hash

import "testing"

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("S3curePass1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := Verify("S3curePass1", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Error("Verify should succeed for matching plaintext")
	}

	ok, err = Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Error("Verify should fail for non-matching plaintext")
	}
}

func TestHashProducesDistinctSalts(t *testing.T) {
	a, _ := Hash("1234")
	b, _ := Hash("1234")
	if a == b {
		t.Error("two hashes of the same PIN must not be identical (distinct salts)")
	}
}
