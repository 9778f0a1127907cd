// Package assets reads game packages from an asset store.
//
// A package is a JSON document holding one or more exported objects:
//
//	{
//	  "path": "FortniteGame/Content/Items/CardPacks/CardPack_Bronze.uasset",
//	  "encryptionKeyGuid": "",
//	  "exports": [{
//	    "name": "CardPack_Bronze",
//	    "class": "FortCardPackItemDefinition",
//	    "properties": {"DisplayName": "Bronze Pack", "DataList": [{"Icon": "/Game/UI/T_Bronze.T_Bronze"}]},
//	    "rows": {"RowName": {}},
//	    "curves": {"RowName": {"keys": [{"time": 1, "value": 10}]}},
//	    "data": "<base64>"
//	  }]
//	}
//
// Sources enumerate a file index and load packages by path. Paths are
// slash-separated and matched case-insensitively. Packages that carry an
// encryption key GUID can only be loaded after the matching key has been
// mounted with Mount.
//
// # Sources
//
//   - DirSource: a directory tree of package documents.
//   - ArchiveSource: a zstd-compressed bundle written by WriteArchive.
//   - BucketSource: package documents in an S3/MinIO bucket.
//   - CachingSource: an LRU cache in front of any other source.
package assets
