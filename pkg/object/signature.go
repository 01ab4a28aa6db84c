package object

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit: the commit serialized without its gpgsig header.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}
