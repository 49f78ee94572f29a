/*
Package chash implements consistent hashing ring which stores the objects it
maps.

Each node placed on the ring owns a partition: a mapping of keys to values.
A key belongs to the first node whose position is strictly greater than the
key's digest; keys hashed beyond the last node wrap around to the first one.
Ring positions are 256-bit unsigned integers taken from a digest of the node
name (SHA-256 by default).

Membership changes move the least possible amount of keys:

1) Adding a node re-evaluates only the keys of its successor (the next node
clockwise). Keys which now route to the new node are moved into its
partition; every other partition is left untouched.

2) Removing a node moves its whole partition into its successor without
re-hashing, since the successor takes over the removed node's range.

Two node names may produce the same position. Nodes are then ordered by name,
and the node with the smaller name owns the whole range preceding that
position, while its twin owns nothing until the former is removed.

Ring is safe for concurrent use. Topology changes are exclusive, while
lookups, updates and iteration share the ring between each other.
*/
package chash
