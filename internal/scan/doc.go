// Package scan locates dataset folders under a directory tree.
//
// A dataset folder is any walked entry whose path ends with the configured
// suffix (train_test by default). The dataset name is the path segment just
// before the final one, so data/PrepaidTravelCost/train_test names the
// PrepaidTravelCost dataset. The walk goes through go-billy so tests can run
// against an in-memory filesystem.
package scan
