/*
Package sstable builds immutable, sorted, block-structured tables from a
strictly increasing stream of key/value pairs. The on-disk format is
compatible with LevelDB tables.

Data Structure Documentation

Table

A table contains a series of data blocks followed by a meta-index block, an
index block and a fixed-size footer. Every block is followed by a trailer.

    Table layout:
    +---------+---------+---------+---------+------------------+-------------+--------+
    | block 1 | trailer |   ...   | trailer | meta-index block | index block | footer |
    +---------+---------+---------+---------+------------------+-------------+--------+

    Trailer:
    +---------------------------+-----------------------------------------+
    | compression type (1-byte) | masked crc32c of block + type (4 bytes) |
    +---------------------------+-----------------------------------------+

    Footer:
    +-----------------------------------+-------------------------------+--------------+-----------------+
    | metaindex handle (varint, varint) | index handle (varint, varint) | zero padding | magic (8 bytes) |
    +-----------------------------------+-------------------------------+--------------+-----------------+

The footer is always 48 bytes long: two handles padded to 40 bytes, followed
by the magic 0xdb4775248b80fb57 in little-endian order.

Compression types are 0 (none), 1 (snappy) and 2 (zstd). A block is only
stored compressed if compression saves at least 1/8 of its size.

Index

The index block holds one entry per data block. The key of an entry is a
separator: a short key that is >= every key of the block and < every key of
the next block. The value is the block handle (offset and size, both
varints). The last entry uses a short successor of the table's last key.
Index blocks use a restart interval of 1.

Block

A block comprises a series of prefix-compressed entries followed by an
array of restart offsets and the number of restarts (all 4-byte,
little-endian). Keys at restart points are stored in full.

    Entry:
    +-----------------+-------------------+--------------------+---------------------+----------------+
    | shared (varint) | unshared (varint) | value len (varint) | key suffix (varlen) | value (varlen) |
    +-----------------+-------------------+--------------------+---------------------+----------------+
*/
package sstable
