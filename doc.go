/*
Package tarantism maps typed, ordered field schemas onto a schema-less,
position-addressed tuple store.

We implement:

1. Fields, shared typed descriptors with validation and an invertible
storage encoding. Declaration order inside a model is the tuple position.

2. Models, declared through a schema builder; each model binds a space
name, a field list and a store alias.

3. Records, live rows of a model: construct, validate, save, update with
field__modifier operations, delete, rehydrate from raw tuples.

4. Query sets, exact-match querying restricted to physically indexed
fields, plus idempotent space/index provisioning.

5. Stores, the capability interface the layer talks to, with a persistent
Bolt implementation and an in-memory one for tests and embedding.

# Technical Details

**Positional contract.**
A tuple element at position N (1-based) always belongs to the N-th
declared field. Index parts, select requests and update instructions all
address fields by this position.

**Key encoding.**
Compound keys use a tuple encoding: each element is its uvarint length
followed by the raw bytes. The encoding of a key tuple is a literal byte
prefix of the encoding of any tuple extending it, which turns exact-match
lookups in non-unique indexes into prefix scans.

**Space state.**
The Bolt store keeps a meta record per space holding the descriptors of
its indexes; the first unique index of a space acts as its primary index.
*/
package tarantism
