/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package token defines the credential type produced by login flows.

A Token is the terminal value of every successful login: the opaque client
token plus the metadata the backend reports alongside it (accessor,
renewability, lease duration, policies, method-specific metadata).

Tokens are constructed from the "auth" section of a login response via
FromSecret. A login response without an auth section is a protocol
violation and FromSecret reports it as such.
*/
package token
