// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package easyfuse turns a kernel FUSE session into typed handler calls
// against a file identity of the caller's choosing.
//
// The primary elements of interest are:
//
//   - Handler, the interface a file system implements to answer kernel
//     requests (open, read, write, lookup, readdir, and so on).
//
//   - DefaultHandler, which may be embedded to obtain defaults for every
//     method a particular file system doesn't care about: ENOSYS, except
//     for init, destroy, opendir, releasedir, fsyncdir and statfs, which
//     succeed with neutral values.
//
//   - Resolver, which maps kernel inodes to the caller's own identity
//     type: either the raw inode itself, or a reconstructed path.
//
//   - Driver and Mount, which pump a session and turn its requests into
//     Handler calls under one of three scheduling policies.
//
// In order to mount file systems with this package the host must have a
// FUSE implementation available: fuse.ko and the setuid fusermount helper.
// Mounting is implemented for Linux only; there is no Darwin session.
package easyfuse
