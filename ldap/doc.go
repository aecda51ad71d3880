// Copyright 2024 nexusdir
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ldap implements an LDAPv3 client protocol engine: BER-typed
// message encoders and decoders, the RFC 4515/4511 filter language, DN
// parsing per RFC 4514, paged search (RFC 2696), and StartTLS (RFC 4513).
//
// The package does not implement a directory server, does not cache or
// pool connections, and does not persist state across process restarts.
package ldap

import "github.com/op/go-logging"

var log = logging.MustGetLogger("ldap")
