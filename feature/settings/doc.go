// Package settings parses the operator's settings document.
//
// The document is XML. Its root carries the remote store credentials, the
// base path, the keystore and mapping locations, the manual keys and mods,
// the key blacklist, the client-only mod list and one serverConfig element
// per deployable target:
//
//	<settings>
//	    <ftpAddress>ftp://example.com</ftpAddress>
//	    <ftpUser>arma</ftpUser>
//	    <ftpPassword>secret</ftpPassword>
//	    <ftpArmaPath>/arma3</ftpArmaPath>
//	    <ftpParFileName>server.par</ftpParFileName>
//	    <keystoreUrl>https://example.com/keys</keystoreUrl>
//	    <keyMappingFileUrl>https://example.com/mapping.json</keyMappingFileUrl>
//	    <manualKeys><key>extra.bikey</key><mod>@tfar</mod></manualKeys>
//	    <blacklistKeys><key>bad.bikey</key></blacklistKeys>
//	    <clientOnlyModList><mod>@jsrs</mod></clientOnlyModList>
//	    <serverConfig name="Main">
//	        <playWithSixConfigFileUrl>https://example.com/main.yml</playWithSixConfigFileUrl>
//	        <parFileSourceUrl>https://example.com/server.par</parFileSourceUrl>
//	        <serverOnlyMods><mod>@server</mod></serverOnlyMods>
//	        <copyFile source="https://example.com/a.cfg" destination="/arma3/cfg/a.cfg"/>
//	    </serverConfig>
//	</settings>
//
// Lookups are strict: a required element that is absent yields a
// *MissingFieldError and the run must not start. A copyFile element missing
// either attribute is skipped.
package settings
